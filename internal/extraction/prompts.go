package extraction

// Each instruction string is the system prompt for one section type's LLM
// extractor. All of them require a single JSON object with "fields" and
// "entities" keys so the registry can parse every section the same way.
const jsonContract = ` Respond with a single JSON object: {"fields": {...}, "entities": [{"type":"...","raw_text":"...","normalized_value":"...","confidence":0.0,"span_start":0,"span_end":0}]}. Do not include any text outside the JSON object.`

const declarationsInstructions = `You are extracting structured data from an insurance policy's declarations page. ` +
	`Populate "fields" with: named_insured, mailing_address, policy_number, policy_period_start, policy_period_end, producer, naic_number. ` +
	`Populate "entities" with Organization (named insured) and Policy mentions.` + jsonContract

const coveragesInstructions = `You are extracting structured data from an insurance policy's coverages/insuring-agreement section. ` +
	`Populate "fields" with a "coverages" array, each item: name, limit, deductible, scope_description. ` +
	`Populate "entities" with Coverage mentions.` + jsonContract

const conditionsInstructions = `You are extracting structured data from an insurance policy's conditions section. ` +
	`Populate "fields" with a "conditions" array, each item: name, description. ` +
	`Populate "entities" with Condition mentions.` + jsonContract

const exclusionsInstructions = `You are extracting structured data from an insurance policy's exclusions section. ` +
	`Populate "fields" with an "exclusions" array, each item: name, description, carve_backs (array of strings). ` +
	`Populate "entities" with Exclusion mentions.` + jsonContract

const endorsementsInstructions = `You are extracting structured data from one insurance policy endorsement. ` +
	`Populate "fields" with: endorsement_ref, title, effective_date, and a "modifications" array, each item: ` +
	`impacted_coverage, impacted_exclusion, effect_category (adds|expands|limits|restores|introduces|narrows|removes), scope, limit, condition, verbatim_language. ` +
	`Populate "entities" with Endorsement mentions.` + jsonContract

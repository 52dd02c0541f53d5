package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	ExtractDocumentDescription = `Extract structured fields from a PDF document using a named template.

**When to use:** You have a document of a known type (invoice, tax form, DOL filing) and want its data as named, typed fields instead of raw text.

**Why it's useful:** Templates declare what each field looks like and how to find it, so the result is a clean record ready for spreadsheets or downstream systems rather than a wall of text.

**Examples:**
• Process a retirement plan filing: "Extract form5500.pdf with template form-5500-sf"
• Pull invoice totals: "Extract invoice-2024-001.pdf with template generic-invoice"
• Read a W-2: "Extract w2-2023.pdf with template w2, pages 1"

**Common workflows:**
1. Known document type: extract_document → use the returned fields directly
2. Unknown document type: list_templates or search_templates → pick a template → extract_document
3. Quality-gated pipeline: extract_document → validate_extraction → accept or flag

**Best practices:** Run list_templates first if unsure which template fits; limit pages on large documents when the fields live on known pages.`

	ListTemplatesDescription = `List available extraction templates, grouped by category.

**When to use:** Before extracting, to discover which document types this server knows how to read.

**Why it's useful:** Shows every template's identifier, version, and document type at a glance so you can pick the right one without guessing.

**Examples:**
• Discover everything: "List all templates"
• Browse one category: "List templates in the 401k category"

**Best practices:** The identifier shown here is the value the template argument of extract_document expects.`

	TemplateInfoDescription = `Show a template's fields, data types, and output layout.

**When to use:** To see exactly which fields an extraction will produce before running it, or to debug why a field came back empty.

**Why it's useful:** Lists each field with its type, whether it is required, and how it is located, plus the record layout the template emits.

**Examples:**
• Inspect before running: "Show template_info for form-5500-sf"
• Debug a miss: "Which pattern does generic-invoice use for total_amount?"`

	SearchTemplatesDescription = `Search templates by name, description, tag, or identifier.

**When to use:** You know roughly what kind of document you have but not which template covers it.

**Why it's useful:** Case-insensitive substring search across all template metadata finds the right template without scanning the full list.

**Examples:**
• By topic: "Search templates for retirement"
• By tag: "Search templates for 1099"`

	ValidateExtractionDescription = `Extract a document and check the result against the template's required fields and validation patterns.

**When to use:** In automated pipelines where a silent partial extraction is worse than a visible failure.

**Why it's useful:** Reports which required fields are missing or empty as errors, and format mismatches as warnings, alongside a field coverage count.

**Examples:**
• Gate a batch job: "Validate form5500.pdf against form-5500-sf before loading it"
• Audit coverage: "How many of the w2 template's fields were found in w2-2023.pdf?"

**Common workflows:**
1. Quality gate: validate_extraction → accept when valid, route to review otherwise
2. Template tuning: validate_extraction → inspect warnings → adjust patterns`

	ServerInfoDescription = `Get server information, the template catalog summary, and usage guidance.

**When to use:** At the start of a session to learn what this server offers, or when troubleshooting configuration.

**Why it's useful:** Reports the server version, the loaded template count, and the available tools in one call.`
)

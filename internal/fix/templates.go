package fix

// Builtin remediation templates, one per builtin category. Bodies follow the
// issue layout the tracker integration publishes: error details first, then
// suggested steps. Patches are starting points for a human reviewer, not
// verified fixes.

var genericTemplate = Template{
	Title: "{{category}}: {{raw}}",
	Body: `## Automated Error Detection

**Category:** {{category}}
**Severity:** {{severity}}
**Confidence:** {{confidence}}
**Environment:** {{environment}}
**Source:** {{source}}

### Error Details
` + "```" + `
{{raw}}
` + "```" + `

### Suggested Fix
1. Review the error details above
2. Add error handling around the failing operation
3. Close this issue when resolved
`,
	Patch: `# Fix for {{category}} in {{source}}
# Wrap the failing operation with explicit error handling.

import logging

logger = logging.getLogger(__name__)

try:
    # original operation here
    pass
except Exception as e:
    logger.error("error in {{source}}: %s", e)
    raise
`,
}

var builtinTemplates = map[string]Template{
	"database_error": {
		Title: "database_error: constraint failure on {{constraint}}",
		Body: `## Automated Error Detection

**Category:** database_error
**Severity:** {{severity}}
**Confidence:** {{confidence}}
**Environment:** {{environment}}
**Source:** {{source}}
**Constraint:** {{constraint}}

### Error Details
` + "```" + `
{{raw}}
` + "```" + `

### Suggested Fix
1. Check database connection settings and model constraints
2. Wrap the operation in a transaction with integrity-error handling
3. Consider a migration if the schema changed
`,
		Patch: `# Database error fix for {{source}}
# Adds transaction management and integrity-error handling around the
# operation that violated {{constraint}}.

from django.db import transaction, IntegrityError
import logging

logger = logging.getLogger(__name__)

try:
    with transaction.atomic():
        # original database operation here
        pass
except IntegrityError as e:
    logger.error("integrity error ({{constraint}}): %s", e)
    raise
`,
	},
	"authentication_error": {
		Title: "authentication_error: {{kind}}",
		Body: `## Automated Error Detection

**Category:** authentication_error
**Severity:** {{severity}}
**Confidence:** {{confidence}}
**Environment:** {{environment}}
**Source:** {{source}}

### Error Details
` + "```" + `
{{raw}}
` + "```" + `

### Suggested Fix
1. Check user permissions and roles for the failing view
2. Verify authentication middleware and session configuration
3. Guard the view with a login requirement
`,
		Patch: `# Authentication fix for {{source}}

from django.contrib.auth.decorators import login_required

@login_required
def protected_view(request):
    # original view logic here
    pass
`,
	},
	"validation_error": {
		Title: "validation_error: {{detail}}",
		Body: `## Automated Error Detection

**Category:** validation_error
**Severity:** {{severity}}
**Confidence:** {{confidence}}
**Environment:** {{environment}}
**Source:** {{source}}

### Error Details
` + "```" + `
{{raw}}
` + "```" + `

### Suggested Fix
1. Add form validation for the rejected input
2. Check model field constraints
3. Return a user-friendly validation message
`,
		Patch: `# Validation fix for {{source}}

from django import forms

class ValidatedForm(forms.Form):
    def clean(self):
        cleaned = super().clean()
        # validate the rejected input here
        return cleaned
`,
	},
	"server_error": {
		Title: "server_error: {{kind}}",
		Body: `## Automated Error Detection

**Category:** server_error
**Severity:** {{severity}}
**Confidence:** {{confidence}}
**Environment:** {{environment}}
**Source:** {{source}}

### Error Details
` + "```" + `
{{raw}}
` + "```" + `

### Suggested Fix
1. Add exception handling to the failing view
2. Check for None values and missing attributes
3. Return a graceful error response instead of a 500
`,
		Patch: `# Server error fix for {{source}}

import logging
from django.http import JsonResponse

logger = logging.getLogger(__name__)

def handled_view(request):
    try:
        # original view logic here
        pass
    except (AttributeError, KeyError) as e:
        logger.error("server error in {{source}}: %s", e)
        return JsonResponse({"error": "internal server error"}, status=500)
`,
	},
	"performance_issue": {
		Title: "performance_issue: {{detail}}",
		Body: `## Automated Error Detection

**Category:** performance_issue
**Severity:** {{severity}}
**Confidence:** {{confidence}}
**Environment:** {{environment}}
**Source:** {{source}}

### Error Details
` + "```" + `
{{raw}}
` + "```" + `

### Suggested Fix
1. Optimize the slow query with select_related/prefetch_related
2. Add caching for repeated reads
3. Add database indexes for frequently filtered fields
`,
		Patch: `# Performance fix for {{source}}

from django.core.cache import cache

def cached_lookup(key, fetch, ttl=300):
    data = cache.get(key)
    if data is None:
        data = fetch()
        cache.set(key, data, ttl)
    return data
`,
	},
}

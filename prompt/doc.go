/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

/*
Package prompt builds the orchestrator, sub-agent and summary prompts
from a template library.

Templates use {{name}} placeholders. Binding is copy-on-write and Build
fails if any placeholder is left unbound, so a misconfigured template
surfaces as an error instead of a half-filled prompt reaching a model.

The built-in library covers all three roles; a YAML file can override any
template, the focus-area catalog, and the review-depth descriptions.
*/
package prompt

// Package remediation maps detected failure categories to remediation
// descriptors.
//
// A Descriptor carries human suggestions, the commands that would fix the
// failure and whether those commands may run without a human in the loop.
// Commands starting with "#" are advisory: they document a manual step and
// are never executed.
//
// The built-in catalog is static and declared once. A YAML override file can
// replace or add descriptors by category:
//
//	descriptors:
//	  - category: lint_error
//	    title: Fix Linting Issues
//	    auto_fixable: true
//	    commands:
//	      - golangci-lint run --fix
//
// Categories without a descriptor (timeout in the built-in catalog) are
// skipped by Suggest.
package remediation

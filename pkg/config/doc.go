// Package config loads stub mappings and engine settings from YAML files.
//
// A mapping file looks like:
//
//	registry:
//	  conflictPolicy: replace
//	strictExtensionReferences: false
//	logging:
//	  level: info
//	  format: text
//	include:
//	  - mappings/**/*.yaml
//	mappings:
//	  - name: find-this
//	    priority: 5
//	    request:
//	      method: GET
//	      customMatcher:
//	        name: path-contains-param
//	        parameters:
//	          path: findthis
//	    response:
//	      status: 200
//	      body: found
//
// Include globs are resolved relative to the including file and support
// doublestar patterns. Each included file holds one mapping or a list of
// mappings. ${VAR} and ${VAR:-default} references are expanded from the
// environment before parsing.
//
// Every criterion in a request section must hold for the mapping to match.
package config

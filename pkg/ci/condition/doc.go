// Package condition parses and evaluates the if guards of jobs and stages.
//
// The language compares build attributes with literal values:
//
//	branch = master AND type IN (push, api)
//	tag IS present OR branch =~ ^release/
//	NOT (type = pull_request)
//
// Keywords are case-insensitive, && and || are accepted for AND and OR, and values may be bare words,
// quoted strings, or /regular expressions/ after =~ and !~.
package condition

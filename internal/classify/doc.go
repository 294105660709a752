// Package classify maps raw CI failure output to known failure categories.
//
// The rule table is ordered. Each category's rules are tried in declaration
// order and the first match records the category; later rules for that
// category are not evaluated. Categories are independent of each other, so a
// single log commonly yields several (a build failure caused by a dependency
// that could not be downloaded, for example). The result always follows table
// order, never the order in which text appears in the log.
//
// ExtractSnippet pulls the excerpt around the first error indicator that the
// reports show alongside the classification.
package classify

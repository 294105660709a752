// Package publish makes the results of a run visible: it commits and pushes
// remediation changes, renders the analysis report as plain text and as
// markdown, and posts the markdown to the pull request.
//
// Every operation reports failure in its result rather than aborting the
// run. CommitAndPush never touches git when the working tree is clean, and
// CommentPoster is a logged no-op without a client or repository.
package publish

// Package emgerr defines the failure taxonomy shared by every pipeline stage.
//
// Stages tag their errors with one sentinel marker (configuration,
// insufficient data, selection, division by zero, metadata parse) through
// Wrap so the CLI, the aggregator's failure report, the metrics registry, and
// the result store can classify failures without string matching. None of
// these failures is ever defaulted away: a zero MVC stays an error.
package emgerr

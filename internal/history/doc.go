// Package history maintains the durable ledger of source URLs already
// delivered to the destination directory. The ledger is a newline-delimited
// text file read in full at cycle start and appended to only after a
// successful commit, so a crash mid-cycle can never mark a URL as seen
// without the corresponding file existing.
package history

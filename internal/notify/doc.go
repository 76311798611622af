// Package notify holds the transient notification state the pipeline
// raises for duplicate admissions. Notices auto-dismiss after a fixed
// dwell, hold while focused, and dismiss faster once focus leaves.
package notify

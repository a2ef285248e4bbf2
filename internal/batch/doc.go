// Package batch runs independent per-item work on a bounded worker pool and
// hands results back to a single consumer in input order.
//
// Workers never touch shared output; the emit callback runs on the calling
// goroutine so writers need no locking. Progress is reported through a
// Progress, which renders a bar on a terminal and falls back to sampled log
// lines otherwise.
package batch

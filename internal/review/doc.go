// Package review runs the multi-agent quality review: three specialist
// evaluations executed concurrently over a job's subtitle pair, a weighted
// aggregate score with a threshold recommendation, and a synthesized
// narrative summary.
package review

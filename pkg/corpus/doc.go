/*
Package corpus reads and writes paraphrase corpus files.

A corpus file is a single JSON object mapping example keys to records. Each
record carries at minimum the original sentence, the paraphrase candidate
(both as source/target language pairs) and an integer-coded gold label.
Scoring runs enrich records with additional scalar fields named after the
model checkpoint and direction, e.g. "bert_ML128_source". The store preserves
both the key order of the file and any fields it does not understand, so the
output file is always the input file plus newly appended score fields.
*/
package corpus

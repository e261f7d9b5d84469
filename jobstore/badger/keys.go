package badger

import "strings"

// Key layout:
//
//	batchjob:<id>            marker, one per job record
//	batchjobf:<id>:<field>   one key per record field
//
// Markers keep job-id enumeration a single prefix scan; field keys give
// hash-set semantics without read-modify-write cycles.
const (
	jobMarkerPrefix = "batchjob:"
	jobFieldPrefix  = "batchjobf:"
)

func makeJobMarkerKey(jobID string) []byte {
	return []byte(jobMarkerPrefix + jobID)
}

func makeJobFieldKey(jobID, field string) []byte {
	return []byte(jobFieldPrefix + jobID + ":" + field)
}

// makeJobFieldScanPrefix is the prefix covering all field keys of one job.
func makeJobFieldScanPrefix(jobID string) []byte {
	return []byte(jobFieldPrefix + jobID + ":")
}

// fieldFromKey extracts the field name from a field key of the given job.
func fieldFromKey(key []byte, jobID string) string {
	return strings.TrimPrefix(string(key), jobFieldPrefix+jobID+":")
}

// jobIDFromMarker extracts the job id from a marker key.
func jobIDFromMarker(key []byte) string {
	return strings.TrimPrefix(string(key), jobMarkerPrefix)
}

package db

// DedupeAttendanceRows keeps the last row for each key, preserving the order
// in which keys first appeared
func DedupeAttendanceRows(rows []AttendanceRow) []AttendanceRow {
	index := make(map[string]int, len(rows))
	out := make([]AttendanceRow, 0, len(rows))
	for _, r := range rows {
		if i, ok := index[r.Key()]; ok {
			out[i] = r
			continue
		}
		index[r.Key()] = len(out)
		out = append(out, r)
	}
	return out
}

package clusterlens

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// LoadCSV reads a dataset from CSV. The first row is the header. Cells are
// coerced to int64, float64, bool or string; empty cells become missing.
func LoadCSV(name string, r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("CSV has no columns")
	}

	ds := &Dataset{Name: name, Columns: append([]string(nil), headers...)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rec := make(Record, len(headers))
		for i, h := range headers {
			if i >= len(row) {
				continue
			}
			if v := coerceCell(row[i]); v != nil {
				rec[h] = v
			}
		}
		ds.Records = append(ds.Records, rec)
	}

	if len(ds.Records) == 0 {
		return nil, fmt.Errorf("CSV has no data rows")
	}
	return ds, nil
}

// coerceCell converts a raw CSV cell to a typed value, nil for empty cells.
func coerceCell(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// LoadJSON reads a dataset from JSON. Accepted shapes: an array of objects,
// a single object, or an object wrapping a single array of objects. Nested
// lists are unwrapped when single-element and joined as strings otherwise;
// nested objects are kept intact so record-detail extraction can expand them.
func LoadJSON(name string, r io.Reader) (*Dataset, error) {
	var root any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	objects, err := recordsFromJSON(root)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("JSON contains no records")
	}

	ds := &Dataset{Name: name}
	seen := make(map[string]struct{})
	for _, obj := range objects {
		rec := make(Record, len(obj))
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := normalizeJSONValue(obj[k])
			if v != nil {
				rec[k] = v
			}
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				ds.Columns = append(ds.Columns, k)
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// recordsFromJSON locates the record list inside the decoded document.
func recordsFromJSON(root any) ([]map[string]any, error) {
	switch v := root.(type) {
	case []any:
		objects := make([]map[string]any, 0, len(v))
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("JSON array elements must be objects")
			}
			objects = append(objects, obj)
		}
		return objects, nil
	case map[string]any:
		// A single wrapper key holding an array of objects counts as the
		// record list; anything else is one record.
		if len(v) == 1 {
			for _, inner := range v {
				if list, ok := inner.([]any); ok {
					return recordsFromJSON(list)
				}
			}
		}
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("unsupported JSON structure")
	}
}

// normalizeJSONValue converts decoded JSON values into dataset cell values.
func normalizeJSONValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case []any:
		if len(val) == 0 {
			return nil
		}
		if len(val) == 1 {
			return normalizeJSONValue(val[0])
		}
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringValue(normalizeJSONValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		nested := make(map[string]any, len(val))
		for k, item := range val {
			nested[k] = normalizeJSONValue(item)
		}
		return nested
	default:
		return v
	}
}

// LoadDatasetFile loads a dataset from disk, picking the parser by extension.
func LoadDatasetFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	var ds *Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		ds, err = LoadJSON(name, f)
	case ".csv":
		ds, err = LoadCSV(name, f)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	ds.ID = name
	return ds, nil
}

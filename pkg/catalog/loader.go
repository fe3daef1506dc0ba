package catalog

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/heap"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

// LoadFile populates c from a text catalog file: one table per line,
// `name (field_name field_type[ pk], …)`. Types are
// `int`/`string`, case-insensitive; a field annotated `pk` is the
// table's primary key. For each line, a heap file named `<name>.dat` is
// opened in the same directory as the catalog file.
func (c *Catalog) LoadFile(path string) error {
	const op = "Catalog.LoadFile"
	f, err := os.Open(path)
	if err != nil {
		return dberrors.Wrap(err, op, "opening catalog file")
	}
	defer f.Close()

	dir := filepath.Dir(path)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := c.loadLine(dir, line); err != nil {
			return dberrors.Wrap(err, op, "line "+strconv.Itoa(lineNo))
		}
	}
	if err := scanner.Err(); err != nil {
		return dberrors.Wrap(err, op, "scanning catalog file")
	}
	return nil
}

func (c *Catalog) loadLine(dir, line string) error {
	const op = "Catalog.loadLine"
	open := strings.IndexByte(line, '(')
	closeIdx := strings.LastIndexByte(line, ')')
	if open < 0 || closeIdx < 0 || closeIdx < open {
		return dberrors.Newf(dberrors.DbErrorKind, op, "malformed line: %q", line)
	}

	name := strings.TrimSpace(line[:open])
	if name == "" {
		return dberrors.Newf(dberrors.DbErrorKind, op, "missing table name in: %q", line)
	}

	fieldList := line[open+1 : closeIdx]
	specs := strings.Split(fieldList, ",")

	var fieldTypes []types.Type
	var fieldNames []string
	primaryKey := ""

	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		parts := strings.Fields(spec)
		if len(parts) < 2 {
			return dberrors.Newf(dberrors.DbErrorKind, op, "malformed field spec: %q", spec)
		}
		fieldName := parts[0]
		fieldType, err := parseFieldType(parts[1])
		if err != nil {
			return dberrors.Wrap(err, op, "parsing field type for "+fieldName)
		}
		fieldNames = append(fieldNames, fieldName)
		fieldTypes = append(fieldTypes, fieldType)
		for _, ann := range parts[2:] {
			if strings.EqualFold(ann, "pk") {
				primaryKey = fieldName
			}
		}
	}

	td, err := tuple.NewTupleDesc(fieldTypes, fieldNames)
	if err != nil {
		return dberrors.Wrap(err, op, "building tuple description")
	}

	file, err := heap.NewHeapFile(filepath.Join(dir, name+".dat"), td)
	if err != nil {
		return dberrors.Wrap(err, op, "opening backing file")
	}

	c.AddTable(file, name, primaryKey)
	return nil
}

func parseFieldType(s string) (types.Type, error) {
	switch strings.ToLower(s) {
	case "int":
		return types.IntType, nil
	case "string":
		return types.StringType, nil
	default:
		return 0, dberrors.Newf(dberrors.DbErrorKind, "catalog.parseFieldType", "unknown type %q", s)
	}
}

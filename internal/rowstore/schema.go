package rowstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Columns is the fixed CSV schema. Readers require exact header equality:
// a reordered or renamed column is a schema error, never silently mapped.
var Columns = []string{
	"source_pptx",
	"source_slide_index",
	"slide_uid",
	"title_text",
	"body_text",
	"notes_text",
	"layout_hint",
	"asset_types",
	"image_refs",
	"image_hashes",
	"text_hash",
	"slide_fingerprint",
}

// ListDelimiter joins list-valued fields inside a single CSV cell. It is a
// character not expected in hashes or locators.
const ListDelimiter = "|"

// Row is one slide's content-addressed record.
type Row struct {
	SourcePPTX       string
	SourceSlideIndex int
	SlideUID         string
	TitleText        string
	BodyText         string
	NotesText        string
	LayoutHint       string
	AssetTypes       []string
	ImageRefs        []string
	ImageHashes      []string
	TextHash         string
	SlideFingerprint string
}

// SplitList splits a delimited list cell, dropping empty items.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ListDelimiter) {
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// JoinList joins items into a delimited list cell.
func JoinList(items []string) string {
	return strings.Join(items, ListDelimiter)
}

func validateHeaders(headers []string) error {
	if len(headers) != len(Columns) {
		return fmt.Errorf("csv headers do not match schema: expected %v, got %v", Columns, headers)
	}
	for i, want := range Columns {
		if headers[i] != want {
			return fmt.Errorf("csv headers do not match schema: expected %v, got %v", Columns, headers)
		}
	}
	return nil
}

// Read loads slide rows from a CSV file, enforcing the schema header.
func Read(path string) ([]Row, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer handle.Close()

	reader := csv.NewReader(handle)
	reader.FieldsPerRecord = len(Columns)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s: missing header row", path)
	}
	if err := validateHeaders(records[0]); err != nil {
		return nil, fmt.Errorf("csv %s: %w", path, err)
	}

	rows := make([]Row, 0, len(records)-1)
	for line, record := range records[1:] {
		index, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("csv %s row %d: source_slide_index %q is not an integer", path, line+2, record[1])
		}
		rows = append(rows, Row{
			SourcePPTX:       record[0],
			SourceSlideIndex: index,
			SlideUID:         record[2],
			TitleText:        record[3],
			BodyText:         record[4],
			NotesText:        record[5],
			LayoutHint:       record[6],
			AssetTypes:       SplitList(record[7]),
			ImageRefs:        SplitList(record[8]),
			ImageHashes:      SplitList(record[9]),
			TextHash:         record[10],
			SlideFingerprint: record[11],
		})
	}
	return rows, nil
}

// Write stores slide rows to a CSV file with the schema header.
func Write(path string, rows []Row) error {
	handle, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer handle.Close()

	writer := csv.NewWriter(handle)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.SourcePPTX,
			strconv.Itoa(row.SourceSlideIndex),
			row.SlideUID,
			row.TitleText,
			row.BodyText,
			row.NotesText,
			row.LayoutHint,
			JoinList(row.AssetTypes),
			JoinList(row.ImageRefs),
			JoinList(row.ImageHashes),
			row.TextHash,
			row.SlideFingerprint,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", path, err)
	}
	return nil
}

// Field returns the row's value for a schema column, used by column sorts.
func (r Row) Field(column string) string {
	switch column {
	case "source_pptx":
		return r.SourcePPTX
	case "source_slide_index":
		return strconv.Itoa(r.SourceSlideIndex)
	case "slide_uid":
		return r.SlideUID
	case "title_text":
		return r.TitleText
	case "body_text":
		return r.BodyText
	case "notes_text":
		return r.NotesText
	case "layout_hint":
		return r.LayoutHint
	case "asset_types":
		return JoinList(r.AssetTypes)
	case "image_refs":
		return JoinList(r.ImageRefs)
	case "image_hashes":
		return JoinList(r.ImageHashes)
	case "text_hash":
		return r.TextHash
	case "slide_fingerprint":
		return r.SlideFingerprint
	}
	return ""
}

// IsColumn reports whether name is a schema column.
func IsColumn(name string) bool {
	for _, column := range Columns {
		if column == name {
			return true
		}
	}
	return false
}

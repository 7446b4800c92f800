// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ui renders popup-login results for the terminal.
package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/stacklok/popup-login/pkg/config"
	"github.com/stacklok/popup-login/pkg/query"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeader(header),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(len(header), tw.AlignLeft)),
	)
	return table
}

// RenderParamsTable renders redirect parameters as a key/value table.
func RenderParamsTable(w io.Writer, p *query.Params) error {
	if p.Len() == 0 {
		_, err := fmt.Fprintln(w, "The redirect carried no parameters.")
		return err
	}

	table := newTable(w, "Parameter", "Value")
	for _, k := range p.Keys() {
		if err := table.Append([]string{k, p.Get(k)}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// WriteParamsJSON writes the parameters as one JSON object, keeping their order.
func WriteParamsJSON(w io.Writer, p *query.Params) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return err
		}
		value, err := json.Marshal(p.Get(k))
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// RenderFieldsTable renders every config field with its current value.
func RenderFieldsTable(w io.Writer, cfg *config.Config, fields []config.Field) error {
	table := newTable(w, "Field", "Value", "Description")
	for _, f := range fields {
		if err := table.Append([]string{f.Name, f.Get(cfg), f.Description}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

package mailmerge

import (
	"fmt"

	"go.uber.org/zap"
)

// MergeTable expands the table region delimited by the TableStart:<Name>
// and TableEnd:<Name> fields. The row holding both fields is repeated once
// per data row and each copy is merged with that row's values; the
// delimiter fields are blanked. With no data rows the region row is removed.
//
// A region whose delimiters cannot be found is skipped unless the document
// runs in strict mode. Delimiters in different rows are always an error.
func (d *Document) MergeTable(table *Table) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.atomically(func() error {
		return d.mergeTable(table)
	})
}

// MergeDataSet merges every table of ds in order. It stops at the first
// error and leaves the document as it was before the call.
func (d *Document) MergeDataSet(ds DataSet) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.atomically(func() error {
		for _, table := range ds {
			if err := d.mergeTable(table); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Document) mergeTable(table *Table) error {
	if table == nil {
		return nil
	}

	// Earlier tables change the tree, so fields are located afresh.
	fields := locateFields(d.body)

	start, okStart := fields.get(table.StartKey())
	end, okEnd := fields.get(table.EndKey())
	if !okStart || !okEnd {
		return d.missingRegion(table, "TableStart or TableEnd field not found")
	}

	startRow := start.Ancestor("tr")
	endRow := end.Ancestor("tr")
	if startRow == nil || endRow == nil {
		return d.missingRegion(table, "TableStart and TableEnd fields must be inside a table row")
	}
	if startRow != endRow {
		return &TableShapeError{
			Table:   table.Name,
			Message: "table merging is only supported when TableStart and TableEnd are in the same table row",
			Kind:    ErrUnsupportedTableShape,
		}
	}

	if len(table.Rows) == 0 {
		startRow.Remove()
		d.logger.Debug("removed empty table region", zap.String("table", table.Name))
		return nil
	}

	template := startRow.Clone()
	parent := startRow.Parent()
	columns := table.Columns()

	previous := startRow
	for i := range table.Rows {
		row := startRow
		if i > 0 {
			row = template.Clone()
			parent.InsertAfter(row, previous)
		}
		if err := d.applyValues(locateFields(row), table.rowValues(i, columns)); err != nil {
			return WithContext(err, fmt.Sprintf("merging row %d of table '%s'", i, table.Name))
		}
		previous = row
	}

	d.logger.Debug("expanded table region",
		zap.String("table", table.Name),
		zap.Int("rows", len(table.Rows)))
	return nil
}

// missingRegion skips a region that cannot be found, or reports it in
// strict mode.
func (d *Document) missingRegion(table *Table, message string) error {
	if d.config.StrictMode {
		return &TableShapeError{
			Table:   table.Name,
			Message: message,
			Kind:    ErrMissingTableRegion,
		}
	}
	d.logger.Warn("skipping table region",
		zap.String("table", table.Name),
		zap.String("reason", message))
	return nil
}

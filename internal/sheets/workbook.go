package sheets

import (
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"trackcheck/internal/expect"
	"trackcheck/internal/logger"
	"trackcheck/pkg/errors"
)

// Workbook moves module templates between the config tree and one xlsx
// file: a sheet per area, a row per template leaf. Made for reviewing and
// bulk-editing expectations outside the repository.
type Workbook struct {
	store  *expect.Store
	logger logger.Logger
}

func NewWorkbook(store *expect.Store, log logger.Logger) *Workbook {
	return &Workbook{store: store, logger: log}
}

var headerRow = []interface{}{"Module", "Path", "Value"}

// Export writes every template in the store to the workbook at path.
func (w *Workbook) Export(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	areas, err := w.store.Areas()
	if err != nil {
		return err
	}

	for _, area := range areas {
		if _, err := f.NewSheet(area); err != nil {
			return errors.Wrap(err, errors.ErrInternal)
		}
		if err := f.SetSheetRow(area, "A1", &headerRow); err != nil {
			return errors.Wrap(err, errors.ErrInternal)
		}

		names, err := w.store.Templates(area)
		if err != nil {
			return err
		}

		rowNum := 2
		for _, name := range names {
			data, err := w.store.ReadRaw(area, name)
			if err != nil {
				return err
			}
			var doc map[string]interface{}
			if err := json.Unmarshal(data, &doc); err != nil {
				return errors.ErrTemplateInvalid.
					WithDetail("area", area).
					WithDetail("module", name).
					WithCause(err)
			}

			for _, row := range Flatten(doc) {
				cells := []interface{}{name, row.Path, row.Value}
				if err := f.SetSheetRow(area, fmt.Sprintf("A%d", rowNum), &cells); err != nil {
					return errors.Wrap(err, errors.ErrInternal)
				}
				rowNum++
			}
		}

		w.logger.Infow("Exported area", "area", area, "modules", len(names))
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}
	return nil
}

// Import reads a workbook written by Export and writes each module back to
// the store as a template file.
func (w *Workbook) Import(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}
	defer f.Close()

	for _, area := range f.GetSheetList() {
		rows, err := f.GetRows(area)
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal)
		}

		// Row order groups a module's leaves together; a map keyed by
		// module keeps that grouping while tolerating interleaving.
		byModule := map[string][]Row{}
		var order []string
		for i, cells := range rows {
			if i == 0 || len(cells) < 2 {
				continue
			}
			module := cells[0]
			value := ""
			if len(cells) > 2 {
				value = cells[2]
			}
			if _, seen := byModule[module]; !seen {
				order = append(order, module)
			}
			byModule[module] = append(byModule[module], Row{Path: cells[1], Value: value})
		}

		for _, module := range order {
			doc, err := Unflatten(byModule[module])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return errors.Wrap(err, errors.ErrInternal)
			}
			if err := w.store.WriteRaw(area, module, data); err != nil {
				return err
			}
		}

		w.logger.Infow("Imported area", "area", area, "modules", len(order))
	}

	return nil
}

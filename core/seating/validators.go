package seating

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/seating/core"
)

var (
	cellTypeTag  = "celltype"
	cellTypeText = "invalid cell type, expected one of seat, aisle, podium, empty"

	numberingModeTag  = "numbering_mode"
	numberingModeText = "invalid numbering mode, expected one of row-column, s-shape, z-shape, podium-s"

	numberingDirTag  = "numbering_dir"
	numberingDirText = "invalid numbering direction, expected top or bottom"

	strategyTag  = "strategy"
	strategyText = "invalid strategy, expected one of sequential, podium-priority, balanced-row, balanced-column, fixed-preserve, random"

	cellsShapeTag  = "cells_shape"
	cellsShapeText = "cells must be a rows x columns matrix"
)

// InitValidators registers the seating validators. core.InitValidators must have been called on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(cellTypeTag, func(fl validator.FieldLevel) bool {
		return CellType(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, cellTypeTag, cellTypeText)

	_ = validate.RegisterValidation(numberingModeTag, func(fl validator.FieldLevel) bool {
		return NumberingMode(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, numberingModeTag, numberingModeText)

	_ = validate.RegisterValidation(numberingDirTag, func(fl validator.FieldLevel) bool {
		return NumberingDirection(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, numberingDirTag, numberingDirText)

	_ = validate.RegisterValidation(strategyTag, func(fl validator.FieldLevel) bool {
		return Strategy(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, strategyTag, strategyText)

	validate.RegisterStructValidation(layoutStructValidation, SaveLayout{}, NewClassroom{})
	core.RegisterCustomTranslation(validate, translator, cellsShapeTag, cellsShapeText)
}

// NewValidator returns a validator with both the generic and the seating validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return validate, translator
}

// layoutStructValidation checks that the cell matrix, when provided, matches the dimensions.
func layoutStructValidation(sl validator.StructLevel) {
	var rows, cols int
	var cells [][]CellType
	switch l := sl.Current().Interface().(type) {
	case SaveLayout:
		rows, cols, cells = l.Rows, l.Columns, l.Cells
	case NewClassroom:
		rows, cols, cells = l.Rows, l.Columns, l.Cells
		if cells != nil && (rows == 0 || cols == 0) {
			// dimensions default from the matrix
			return
		}
	default:
		return
	}
	if cells == nil {
		return
	}
	if !matrixMatches(cells, rows, cols) {
		sl.ReportError(cells, "cells", "Cells", cellsShapeTag, "")
	}
}

func matrixMatches(cells [][]CellType, rows, cols int) bool {
	if len(cells) != rows {
		return false
	}
	for _, row := range cells {
		if len(row) != cols {
			return false
		}
	}
	return true
}

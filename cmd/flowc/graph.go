package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/flowc/definition"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
)

// loadGraph reads a graph projection (.json) or builds a pipeline
// definition. Includes resolve relative to the definition's directory.
func loadGraph(path string, log *logger.Logger) (*ir.Graph, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NotFound("graph", path)
			}
			return nil, errors.InvalidInput("graph", err.Error()).WithDetail("path", path)
		}
		return ir.Decode(data)
	}

	def, err := definition.Load(path)
	if err != nil {
		return nil, err
	}
	s, err := definition.Build(def, definition.StandardFuncs(),
		definition.WithLoader(definition.NewFileLoader(filepath.Dir(path))),
		definition.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	log.Debug("pipeline built", logger.Fields("name", def.Name, logger.FieldCount, s.Graph().Len()))
	return s.Graph(), nil
}

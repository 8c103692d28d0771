package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/taskroute/internal/config"
	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/vk/taskroute/internal/fsutil"
	"github.com/vk/taskroute/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths and merges them into one
// model. A later `router` block replaces an earlier one; a later `dispatcher`
// block overrides the fields it sets. A task may span several files, but
// defining the same action twice is an error.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles), "files", hclFiles)

	model := config.NewModel()
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.FileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if err := l.merge(ctx, model, &root, file); err != nil {
			return nil, nil, fmt.Errorf("in %s: %w", file, err)
		}
		logger.Debug("Merged HCL file into model.", "file", file, "tasks", len(root.Tasks))
	}

	logger.Debug("HCL loading complete.", "tasks", len(model.Tasks))
	return model, NewConverter(), nil
}

// merge translates one decoded file and folds it into model.
func (l *Loader) merge(ctx context.Context, model *config.Model, root *schema.FileRoot, file string) error {
	if root.Router != nil {
		defaults, err := translateRouter(root.Router)
		if err != nil {
			return err
		}
		model.Router = defaults
	}
	if root.Dispatcher != nil {
		translateDispatcher(root.Dispatcher, model.Dispatcher)
	}

	for _, t := range root.Tasks {
		def, err := translateTask(ctx, t)
		if err != nil {
			return err
		}
		def.SourceFile = file

		existing, ok := model.Tasks[def.Key()]
		if !ok {
			model.Tasks[def.Key()] = def
			continue
		}
		// A task may be spread over several files, but each action only once.
		for name, action := range def.Actions {
			if _, dup := existing.Actions[name]; dup {
				return fmt.Errorf("action '%s' of task '%s' is already defined in %s", name, def.Key(), existing.SourceFile)
			}
			existing.Actions[name] = action
		}
		if existing.Description == "" {
			existing.Description = def.Description
		}
	}
	return nil
}

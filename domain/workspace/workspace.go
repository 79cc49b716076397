package workspace

import (
	"sort"

	"hybridtest/domain/model"
	"hybridtest/internal/errors"
)

// Workspace is a named registry of everything one analysis needs: parameter
// declarations, densities, datasets, and named parameter sets. A workspace
// round-trips through its JSON form, so a model built in one process can be
// persisted and refit in another.
type Workspace struct {
	name       string
	params     map[string]model.Param
	paramOrder []string
	pdfs       map[string]model.PDF
	pdfOrder   []string
	datasets   map[string]*model.Dataset
	sets       map[string][]string
}

// New creates an empty workspace
func New(name string) *Workspace {
	return &Workspace{
		name:     name,
		params:   map[string]model.Param{},
		pdfs:     map[string]model.PDF{},
		datasets: map[string]*model.Dataset{},
		sets:     map[string][]string{},
	}
}

// Name returns the workspace name
func (w *Workspace) Name() string {
	return w.name
}

// ImportParams registers parameter declarations, replacing same-named ones
func (w *Workspace) ImportParams(params ...model.Param) {
	for _, p := range params {
		if _, exists := w.params[p.Name]; !exists {
			w.paramOrder = append(w.paramOrder, p.Name)
		}
		w.params[p.Name] = p
	}
}

// ImportPDF registers a density under its own name
func (w *Workspace) ImportPDF(pdf model.PDF) error {
	name := pdf.Name()
	if name == "" {
		return errors.InvalidInput("pdf has no name")
	}
	if _, exists := w.pdfs[name]; !exists {
		w.pdfOrder = append(w.pdfOrder, name)
	}
	w.pdfs[name] = pdf
	return nil
}

// ImportDataset registers a dataset under a name
func (w *Workspace) ImportDataset(name string, data *model.Dataset) error {
	if name == "" {
		return errors.InvalidInput("dataset has no name")
	}
	w.datasets[name] = data
	return nil
}

// DefineSet registers a named list of parameter names, typically the
// nuisance parameters or the parameters of interest of one model
func (w *Workspace) DefineSet(name string, paramNames ...string) error {
	for _, pn := range paramNames {
		if _, ok := w.params[pn]; !ok {
			return errors.NotFound("parameter " + pn)
		}
	}
	w.sets[name] = append([]string(nil), paramNames...)
	return nil
}

// Param looks up a parameter declaration
func (w *Workspace) Param(name string) (model.Param, error) {
	p, ok := w.params[name]
	if !ok {
		return model.Param{}, errors.NotFound("parameter " + name)
	}
	return p, nil
}

// Params returns all declared parameters in import order
func (w *Workspace) Params() []model.Param {
	out := make([]model.Param, 0, len(w.paramOrder))
	for _, name := range w.paramOrder {
		out = append(out, w.params[name])
	}
	return out
}

// ParamSet returns the declared values of all parameters
func (w *Workspace) ParamSet() model.ParamSet {
	return model.InitialValues(w.Params())
}

// PDF looks up a density
func (w *Workspace) PDF(name string) (model.PDF, error) {
	pdf, ok := w.pdfs[name]
	if !ok {
		return nil, errors.NotFound("pdf " + name)
	}
	return pdf, nil
}

// PDFNames returns all registered density names sorted
func (w *Workspace) PDFNames() []string {
	names := make([]string, 0, len(w.pdfs))
	for name := range w.pdfs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dataset looks up a dataset
func (w *Workspace) Dataset(name string) (*model.Dataset, error) {
	d, ok := w.datasets[name]
	if !ok {
		return nil, errors.NotFound("dataset " + name)
	}
	return d, nil
}

// DatasetNames returns all registered dataset names sorted
func (w *Workspace) DatasetNames() []string {
	names := make([]string, 0, len(w.datasets))
	for name := range w.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set looks up a named parameter list
func (w *Workspace) Set(name string) ([]string, error) {
	s, ok := w.sets[name]
	if !ok {
		return nil, errors.NotFound("set " + name)
	}
	return append([]string(nil), s...), nil
}

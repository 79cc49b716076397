package workspace

import (
	"encoding/json"
	"fmt"

	"hybridtest/domain/model"
	"hybridtest/internal/errors"
)

// workspaceSpec is the JSON form of a workspace. Densities are stored in
// dependency order so composites always follow their components.
type workspaceSpec struct {
	Name     string              `json:"name"`
	Params   []model.Param       `json:"params"`
	PDFs     []pdfSpec           `json:"pdfs"`
	Datasets map[string]dataSpec `json:"datasets,omitempty"`
	Sets     map[string][]string `json:"sets,omitempty"`
}

type dataSpec struct {
	Observables []string    `json:"observables"`
	Rows        [][]float64 `json:"rows"`
}

type pdfSpec struct {
	Name string `json:"name"`
	Kind string `json:"kind"`

	Obs *model.Observable `json:"observable,omitempty"`

	Rate   *exprSpec  `json:"rate,omitempty"`
	Mean   *exprSpec  `json:"mean,omitempty"`
	Sigma  *exprSpec  `json:"sigma,omitempty"`
	Shape  *exprSpec  `json:"shape,omitempty"`
	Median *exprSpec  `json:"median,omitempty"`
	Kappa  *exprSpec  `json:"kappa,omitempty"`
	Coeffs []exprSpec `json:"coeffs,omitempty"`

	Components []string   `json:"components,omitempty"`
	Fracs      []exprSpec `json:"fracs,omitempty"`
	Yields     []exprSpec `json:"yields,omitempty"`
}

// exprSpec is the JSON form of a parameter expression; exactly one field is
// set per node.
type exprSpec struct {
	Param string     `json:"param,omitempty"`
	Const *float64   `json:"const,omitempty"`
	Sum   []exprSpec `json:"sum,omitempty"`
	Prod  []exprSpec `json:"prod,omitempty"`
}

// Encode serializes the workspace to JSON
func (w *Workspace) Encode() ([]byte, error) {
	spec := workspaceSpec{
		Name:   w.name,
		Params: w.Params(),
		Sets:   w.sets,
	}
	emitted := map[string]bool{}
	for _, name := range w.pdfOrder {
		if err := appendPDFSpec(&spec.PDFs, w.pdfs[name], emitted); err != nil {
			return nil, err
		}
	}
	if len(w.datasets) > 0 {
		spec.Datasets = map[string]dataSpec{}
		for name, d := range w.datasets {
			ds := dataSpec{Observables: d.Observables()}
			for i := 0; i < d.NumEntries(); i++ {
				row := d.Row(i)
				values := make([]float64, len(ds.Observables))
				for j, obs := range ds.Observables {
					values[j] = row[obs]
				}
				ds.Rows = append(ds.Rows, values)
			}
			spec.Datasets[name] = ds
		}
	}
	return json.MarshalIndent(spec, "", "  ")
}

// Decode rebuilds a workspace from its JSON form
func Decode(data []byte) (*Workspace, error) {
	var spec workspaceSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	w := New(spec.Name)
	w.ImportParams(spec.Params...)

	for _, ps := range spec.PDFs {
		pdf, err := decodePDF(ps, w.pdfs)
		if err != nil {
			return nil, err
		}
		if err := w.ImportPDF(pdf); err != nil {
			return nil, err
		}
	}

	for name, ds := range spec.Datasets {
		d := model.NewDataset(ds.Observables...)
		for _, row := range ds.Rows {
			if err := d.Append(row...); err != nil {
				return nil, err
			}
		}
		if err := w.ImportDataset(name, d); err != nil {
			return nil, err
		}
	}

	for name, params := range spec.Sets {
		if err := w.DefineSet(name, params...); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// appendPDFSpec emits composites after their components
func appendPDFSpec(out *[]pdfSpec, pdf model.PDF, emitted map[string]bool) error {
	if emitted[pdf.Name()] {
		return nil
	}
	spec := pdfSpec{Name: pdf.Name()}

	switch p := pdf.(type) {
	case *model.PoissonPDF:
		spec.Kind = "poisson"
		spec.Obs = &p.Obs
		spec.Rate = encodeExprPtr(p.Rate)
	case *model.GaussianPDF:
		spec.Kind = "gaussian"
		spec.Obs = &p.Obs
		spec.Mean = encodeExprPtr(p.Mean)
		spec.Sigma = encodeExprPtr(p.Sigma)
	case *model.GammaPDF:
		spec.Kind = "gamma"
		spec.Obs = &p.Obs
		spec.Shape = encodeExprPtr(p.Shape)
		spec.Rate = encodeExprPtr(p.Rate)
	case *model.LognormalPDF:
		spec.Kind = "lognormal"
		spec.Obs = &p.Obs
		spec.Median = encodeExprPtr(p.Median)
		spec.Kappa = encodeExprPtr(p.Kappa)
	case *model.UniformPDF:
		spec.Kind = "uniform"
		spec.Obs = &p.Obs
	case *model.ChebychevPDF:
		spec.Kind = "chebychev"
		spec.Obs = &p.Obs
		for _, c := range p.Coeffs {
			spec.Coeffs = append(spec.Coeffs, encodeExpr(c))
		}
	case *model.ProductPDF:
		spec.Kind = "product"
		for _, comp := range p.Components {
			if err := appendPDFSpec(out, comp, emitted); err != nil {
				return err
			}
			spec.Components = append(spec.Components, comp.Name())
		}
	case *model.AddPDF:
		spec.Kind = "add"
		for _, comp := range p.Components {
			if err := appendPDFSpec(out, comp, emitted); err != nil {
				return err
			}
			spec.Components = append(spec.Components, comp.Name())
		}
		for _, f := range p.Fracs {
			spec.Fracs = append(spec.Fracs, encodeExpr(f))
		}
		for _, y := range p.Yields {
			spec.Yields = append(spec.Yields, encodeExpr(y))
		}
	default:
		return errors.InvalidInput(fmt.Sprintf("pdf %q has no serialized form", pdf.Name()))
	}

	emitted[pdf.Name()] = true
	*out = append(*out, spec)
	return nil
}

func decodePDF(spec pdfSpec, known map[string]model.PDF) (model.PDF, error) {
	needObs := func() (model.Observable, error) {
		if spec.Obs == nil {
			return model.Observable{}, errors.InvalidInput(fmt.Sprintf("pdf %q misses its observable", spec.Name))
		}
		return *spec.Obs, nil
	}

	switch spec.Kind {
	case "poisson":
		obs, err := needObs()
		if err != nil {
			return nil, err
		}
		rate, err := decodeExprPtr(spec.Rate, spec.Name, "rate")
		if err != nil {
			return nil, err
		}
		return &model.PoissonPDF{PDFName: spec.Name, Obs: obs, Rate: rate}, nil

	case "gaussian":
		obs, err := needObs()
		if err != nil {
			return nil, err
		}
		mean, err := decodeExprPtr(spec.Mean, spec.Name, "mean")
		if err != nil {
			return nil, err
		}
		sigma, err := decodeExprPtr(spec.Sigma, spec.Name, "sigma")
		if err != nil {
			return nil, err
		}
		return &model.GaussianPDF{PDFName: spec.Name, Obs: obs, Mean: mean, Sigma: sigma}, nil

	case "gamma":
		obs, err := needObs()
		if err != nil {
			return nil, err
		}
		shape, err := decodeExprPtr(spec.Shape, spec.Name, "shape")
		if err != nil {
			return nil, err
		}
		rate, err := decodeExprPtr(spec.Rate, spec.Name, "rate")
		if err != nil {
			return nil, err
		}
		return &model.GammaPDF{PDFName: spec.Name, Obs: obs, Shape: shape, Rate: rate}, nil

	case "lognormal":
		obs, err := needObs()
		if err != nil {
			return nil, err
		}
		median, err := decodeExprPtr(spec.Median, spec.Name, "median")
		if err != nil {
			return nil, err
		}
		kappa, err := decodeExprPtr(spec.Kappa, spec.Name, "kappa")
		if err != nil {
			return nil, err
		}
		return &model.LognormalPDF{PDFName: spec.Name, Obs: obs, Median: median, Kappa: kappa}, nil

	case "uniform":
		obs, err := needObs()
		if err != nil {
			return nil, err
		}
		return &model.UniformPDF{PDFName: spec.Name, Obs: obs}, nil

	case "chebychev":
		obs, err := needObs()
		if err != nil {
			return nil, err
		}
		var coeffs []model.Expr
		for _, c := range spec.Coeffs {
			e, err := decodeExpr(c)
			if err != nil {
				return nil, err
			}
			coeffs = append(coeffs, e)
		}
		return &model.ChebychevPDF{PDFName: spec.Name, Obs: obs, Coeffs: coeffs}, nil

	case "product":
		components, err := resolveComponents(spec, known)
		if err != nil {
			return nil, err
		}
		return &model.ProductPDF{PDFName: spec.Name, Components: components}, nil

	case "add":
		components, err := resolveComponents(spec, known)
		if err != nil {
			return nil, err
		}
		add := &model.AddPDF{PDFName: spec.Name, Components: components}
		for _, f := range spec.Fracs {
			e, err := decodeExpr(f)
			if err != nil {
				return nil, err
			}
			add.Fracs = append(add.Fracs, e)
		}
		for _, y := range spec.Yields {
			e, err := decodeExpr(y)
			if err != nil {
				return nil, err
			}
			add.Yields = append(add.Yields, e)
		}
		return add, nil

	default:
		return nil, errors.InvalidInput(fmt.Sprintf("pdf %q has unknown kind %q", spec.Name, spec.Kind))
	}
}

func resolveComponents(spec pdfSpec, known map[string]model.PDF) ([]model.PDF, error) {
	var out []model.PDF
	for _, name := range spec.Components {
		comp, ok := known[name]
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("pdf %q references unknown component %q", spec.Name, name))
		}
		out = append(out, comp)
	}
	if len(out) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("pdf %q has no components", spec.Name))
	}
	return out, nil
}

func encodeExpr(e model.Expr) exprSpec {
	switch x := e.(type) {
	case model.ParamRef:
		return exprSpec{Param: x.Name()}
	case model.ConstExpr:
		v := float64(x)
		return exprSpec{Const: &v}
	case model.SumExpr:
		return exprSpec{Sum: encodeExprs(x)}
	case model.ProdExpr:
		return exprSpec{Prod: encodeExprs(x)}
	default:
		// Unknown node types freeze to their value at an empty
		// parameter assignment.
		v := e.Eval(model.NewParamSet())
		return exprSpec{Const: &v}
	}
}

func encodeExprs(exprs []model.Expr) []exprSpec {
	out := make([]exprSpec, len(exprs))
	for i, e := range exprs {
		out[i] = encodeExpr(e)
	}
	return out
}

func encodeExprPtr(e model.Expr) *exprSpec {
	spec := encodeExpr(e)
	return &spec
}

func decodeExprPtr(spec *exprSpec, pdfName, field string) (model.Expr, error) {
	if spec == nil {
		return nil, errors.InvalidInput(fmt.Sprintf("pdf %q misses its %s expression", pdfName, field))
	}
	return decodeExpr(*spec)
}

func decodeExpr(spec exprSpec) (model.Expr, error) {
	set := 0
	if spec.Param != "" {
		set++
	}
	if spec.Const != nil {
		set++
	}
	if len(spec.Sum) > 0 {
		set++
	}
	if len(spec.Prod) > 0 {
		set++
	}
	if set != 1 {
		return nil, errors.InvalidInput("expression node must set exactly one of param, const, sum, prod")
	}

	switch {
	case spec.Param != "":
		return model.P(spec.Param), nil
	case spec.Const != nil:
		return model.C(*spec.Const), nil
	case len(spec.Sum) > 0:
		terms, err := decodeExprs(spec.Sum)
		if err != nil {
			return nil, err
		}
		return model.Sum(terms...), nil
	default:
		factors, err := decodeExprs(spec.Prod)
		if err != nil {
			return nil, err
		}
		return model.Prod(factors...), nil
	}
}

func decodeExprs(specs []exprSpec) ([]model.Expr, error) {
	out := make([]model.Expr, 0, len(specs))
	for _, s := range specs {
		e, err := decodeExpr(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

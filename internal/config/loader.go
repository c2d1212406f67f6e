package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/closegraph/internal/model"
)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "server"},
		{Type: "template", LabelNames: []string{"label"}},
	},
}

var serverSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "listen_addr"},
		{Name: "log_level"},
		{Name: "log_format"},
	},
}

var templateSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name", Required: true},
		{Name: "description"},
		{Name: "close_type"},
		{Name: "department"},
		{Name: "default_assignee"},
		{Name: "days_offset"},
		{Name: "sort_order"},
		{Name: "estimated_hours"},
		{Name: "depends_on"},
	},
}

// Load parses and validates a configuration file.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}
	return decodeRoot(file.Body, path)
}

// LoadBytes parses configuration from memory; the filename only labels
// diagnostics.
func LoadBytes(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}
	return decodeRoot(file.Body, filename)
}

func decodeRoot(body hcl.Body, filename string) (*Config, error) {
	content, diags := body.Content(rootSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	cfg := Default()
	seenServer := false
	labels := make(map[string]struct{})

	for _, block := range content.Blocks {
		switch block.Type {
		case "server":
			if seenServer {
				return nil, fmt.Errorf("%s: duplicate server block", filename)
			}
			seenServer = true
			if err := decodeServer(block.Body, &cfg.Server); err != nil {
				return nil, fmt.Errorf("server block: %w", err)
			}
		case "template":
			label := block.Labels[0]
			if _, dup := labels[label]; dup {
				return nil, fmt.Errorf("%s: duplicate template label %q", filename, label)
			}
			labels[label] = struct{}{}
			tmpl, err := decodeTemplate(block.Body, label)
			if err != nil {
				return nil, fmt.Errorf("template %q: %w", label, err)
			}
			cfg.Templates = append(cfg.Templates, *tmpl)
		}
	}

	// depends_on references are trusted config, unlike API candidate
	// lists: an unknown label is a load error, not a silent drop.
	for _, tmpl := range cfg.Templates {
		for _, dep := range tmpl.DependsOn {
			if _, ok := labels[dep]; !ok {
				return nil, fmt.Errorf("template %q depends on unknown template %q", tmpl.Label, dep)
			}
		}
	}

	if err := validateServer(&cfg.Server); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeServer(body hcl.Body, out *Server) error {
	content, diags := body.Content(serverSchema)
	if diags.HasErrors() {
		return diags
	}
	if err := decodeString(content.Attributes["listen_addr"], &out.ListenAddr); err != nil {
		return err
	}
	if err := decodeString(content.Attributes["log_level"], &out.LogLevel); err != nil {
		return err
	}
	return decodeString(content.Attributes["log_format"], &out.LogFormat)
}

func decodeTemplate(body hcl.Body, label string) (*Template, error) {
	content, diags := body.Content(templateSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	tmpl := &Template{Label: label, CloseType: string(model.CloseMonthly)}

	if err := decodeString(content.Attributes["name"], &tmpl.Name); err != nil {
		return nil, err
	}
	if err := decodeString(content.Attributes["description"], &tmpl.Description); err != nil {
		return nil, err
	}
	if err := decodeString(content.Attributes["close_type"], &tmpl.CloseType); err != nil {
		return nil, err
	}
	if !model.CloseType(tmpl.CloseType).Valid() {
		return nil, fmt.Errorf("invalid close_type %q", tmpl.CloseType)
	}
	if err := decodeString(content.Attributes["department"], &tmpl.Department); err != nil {
		return nil, err
	}
	if err := decodeString(content.Attributes["default_assignee"], &tmpl.DefaultAssigneeID); err != nil {
		return nil, err
	}
	if err := decodeInt(content.Attributes["days_offset"], &tmpl.DaysOffset); err != nil {
		return nil, err
	}
	if err := decodeInt(content.Attributes["sort_order"], &tmpl.SortOrder); err != nil {
		return nil, err
	}
	if attr := content.Attributes["estimated_hours"]; attr != nil {
		var hours float64
		if err := decodeAttr(attr, cty.Number, &hours); err != nil {
			return nil, err
		}
		tmpl.EstimatedHours = &hours
	}
	if err := decodeStringSlice(content.Attributes["depends_on"], &tmpl.DependsOn); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// decodeAttr evaluates an attribute, converts it to the wanted cty type,
// and binds it to the Go target. Configuration is literal-only, so no
// EvalContext is supplied.
func decodeAttr(attr *hcl.Attribute, want cty.Type, target any) error {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return fmt.Errorf("evaluating %s: %w", attr.Name, diags)
	}
	val, err := convert.Convert(val, want)
	if err != nil {
		return fmt.Errorf("attribute %s: %w", attr.Name, err)
	}
	if err := gocty.FromCtyValue(val, target); err != nil {
		return fmt.Errorf("attribute %s: %w", attr.Name, err)
	}
	return nil
}

func decodeString(attr *hcl.Attribute, out *string) error {
	if attr == nil {
		return nil
	}
	return decodeAttr(attr, cty.String, out)
}

func decodeInt(attr *hcl.Attribute, out *int) error {
	if attr == nil {
		return nil
	}
	return decodeAttr(attr, cty.Number, out)
}

func decodeStringSlice(attr *hcl.Attribute, out *[]string) error {
	if attr == nil {
		return nil
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return fmt.Errorf("evaluating %s: %w", attr.Name, diags)
	}
	val, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return fmt.Errorf("attribute %s: %w", attr.Name, err)
	}
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		*out = append(*out, elem.AsString())
	}
	return nil
}

func validateServer(s *Server) error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", s.LogLevel)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be text or json", s.LogFormat)
	}
	if s.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	return nil
}

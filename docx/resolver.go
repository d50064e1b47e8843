package docx

import "strconv"

// ResolvedStyle contains the fully resolved properties for a style.
type ResolvedStyle struct {
	// Identity
	ID   string
	Name string
	Type string // paragraph, character, table

	// Paragraph properties
	Alignment string // left, center, right, both; empty if unspecified

	// Run/character properties
	FontName string
	FontSize float64 // points; 0 if unspecified
	Bold     bool
	Italic   bool
}

// StyleResolver resolves styles with inheritance support.
type StyleResolver struct {
	styles      map[string]*styleDefXML
	resolved    map[string]*ResolvedStyle
	defaultFont string
	defaultSize float64
}

// NewStyleResolver creates a new style resolver from parsed styles.
// Defaults come from docDefaults; a document without them resolves to
// zero values so implicit formatting stays implicit on rewrite.
func NewStyleResolver(styles *stylesXML) *StyleResolver {
	sr := &StyleResolver{
		styles:   make(map[string]*styleDefXML),
		resolved: make(map[string]*ResolvedStyle),
	}

	if styles == nil {
		return sr
	}

	// Build style map
	for i := range styles.Styles {
		style := &styles.Styles[i]
		sr.styles[style.StyleID] = style
	}

	defaults := styles.DocDefaults.RPrDefault.RPr
	if defaults.Font.ASCII != "" {
		sr.defaultFont = defaults.Font.ASCII
	}
	if defaults.FontSize.Val != "" {
		if size := parseHalfPoints(defaults.FontSize.Val); size > 0 {
			sr.defaultSize = size
		}
	}

	return sr
}

// Resolve returns the fully resolved style for the given style ID.
// If the style doesn't exist, returns a default style.
func (sr *StyleResolver) Resolve(styleID string) *ResolvedStyle {
	if styleID == "" {
		return sr.defaultStyle()
	}

	// Check cache
	if resolved, ok := sr.resolved[styleID]; ok {
		return resolved
	}

	// Start with default style
	resolved := sr.defaultStyle()
	resolved.ID = styleID

	styleDef, ok := sr.styles[styleID]
	if !ok {
		sr.resolved[styleID] = resolved
		return resolved
	}

	resolved.Name = styleDef.Name.Val
	resolved.Type = styleDef.Type

	// Apply properties from base to derived
	for _, sid := range sr.buildInheritanceChain(styleID) {
		if def, ok := sr.styles[sid]; ok {
			applyStyleDef(resolved, def)
		}
	}

	// Cache and return
	sr.resolved[styleID] = resolved
	return resolved
}

// defaultStyle returns a style with document default values.
func (sr *StyleResolver) defaultStyle() *ResolvedStyle {
	return &ResolvedStyle{
		FontName: sr.defaultFont,
		FontSize: sr.defaultSize,
	}
}

// buildInheritanceChain returns style IDs from base to derived.
func (sr *StyleResolver) buildInheritanceChain(styleID string) []string {
	var chain []string
	visited := make(map[string]bool)

	current := styleID
	for current != "" && !visited[current] {
		visited[current] = true
		chain = append([]string{current}, chain...) // Prepend

		if def, ok := sr.styles[current]; ok {
			current = def.BasedOn.Val
		} else {
			break
		}
	}

	return chain
}

// applyStyleDef applies a style definition's properties to a resolved style.
func applyStyleDef(resolved *ResolvedStyle, def *styleDefXML) {
	if def.PPr.Justification.Val != "" {
		resolved.Alignment = def.PPr.Justification.Val
	}

	rpr := def.RPr
	if rpr.Font.ASCII != "" {
		resolved.FontName = rpr.Font.ASCII
	}
	if rpr.FontSize.Val != "" {
		if size := parseHalfPoints(rpr.FontSize.Val); size > 0 {
			resolved.FontSize = size
		}
	}
	// Bold - present means true (unless val="false" or val="0")
	if rpr.Bold.XMLName.Local != "" {
		resolved.Bold = rpr.Bold.Val != "false" && rpr.Bold.Val != "0"
	}
	if rpr.Italic.XMLName.Local != "" {
		resolved.Italic = rpr.Italic.Val != "false" && rpr.Italic.Val != "0"
	}
}

// ResolvedRun contains resolved properties for a text run.
type ResolvedRun struct {
	FontName string
	FontSize float64
	Bold     bool
	Italic   bool
}

// ResolveRun resolves run properties, combining paragraph style with direct formatting.
func (sr *StyleResolver) ResolveRun(paragraphStyle string, runProps runPropsXML) *ResolvedRun {
	// Start with paragraph style
	baseStyle := sr.Resolve(paragraphStyle)

	resolved := &ResolvedRun{
		FontName: baseStyle.FontName,
		FontSize: baseStyle.FontSize,
		Bold:     baseStyle.Bold,
		Italic:   baseStyle.Italic,
	}

	// Apply direct run formatting (overrides style)
	if runProps.Font.ASCII != "" {
		resolved.FontName = runProps.Font.ASCII
	}
	if runProps.FontSize.Val != "" {
		if size := parseHalfPoints(runProps.FontSize.Val); size > 0 {
			resolved.FontSize = size
		}
	}
	if runProps.Bold.XMLName.Local != "" {
		resolved.Bold = runProps.Bold.Val != "false" && runProps.Bold.Val != "0"
	}
	if runProps.Italic.XMLName.Local != "" {
		resolved.Italic = runProps.Italic.Val != "false" && runProps.Italic.Val != "0"
	}

	return resolved
}

// parseHalfPoints parses a size in half-points to points.
// Word uses half-points for font sizes (e.g., "24" = 12pt).
func parseHalfPoints(s string) float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val / 2
}

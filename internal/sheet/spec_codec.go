package sheet

import (
	"fmt"
	"strings"

	"sheets-catalog-connector/internal/models"
)

// ParseSpecBlock decodes a multi-line specification cell. Each line is
// "name:value,value" with two optional prefixes on the name: a leading "."
// marks a root-level specification, and "group!name" overrides the default
// group. The block is all-or-nothing: one malformed line rejects every line.
func ParseSpecBlock(block string) ([]models.SpecAttribute, error) {
	if strings.TrimSpace(block) == "" {
		return nil, nil
	}
	lines := splitLines(block)
	attrs := make([]models.SpecAttribute, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, rawValues, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("specification line %q is missing ':'", line)
		}
		name = strings.TrimSpace(name)
		attr := models.SpecAttribute{GroupName: models.DefaultSpecGroup}
		if strings.HasPrefix(name, ".") {
			attr.RootLevelSpecification = true
			name = strings.TrimPrefix(name, ".")
		}
		if group, field, hasGroup := strings.Cut(name, "!"); hasGroup {
			attr.GroupName = strings.TrimSpace(group)
			name = strings.TrimSpace(field)
		}
		if name == "" {
			return nil, fmt.Errorf("specification line %q has an empty name", line)
		}
		attr.FieldName = name
		for _, v := range strings.Split(rawValues, ",") {
			v = strings.TrimSpace(v)
			if v != "" {
				attr.FieldValues = append(attr.FieldValues, v)
			}
		}
		if len(attr.FieldValues) == 0 {
			return nil, fmt.Errorf("specification line %q has no values", line)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// EncodeSpecs renders specifications back into the sheet mini-language, one
// "name:value,value" line per specification.
func EncodeSpecs(specs []models.ProductSpecification) string {
	var sb strings.Builder
	for i, spec := range specs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(spec.Name)
		sb.WriteString(":")
		sb.WriteString(strings.Join(spec.Value, ","))
	}
	return sb.String()
}

func splitLines(block string) []string {
	return strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
}

package models

// DefaultSpecGroup is the group a specification belongs to when the encoded
// form does not name one.
const DefaultSpecGroup = "Default"

// SpecAttribute is one product or SKU specification attribute, decoded from
// the "group!name:value,value" sheet mini-language.
type SpecAttribute struct {
	GroupName              string   `json:"groupName"`
	RootLevelSpecification bool     `json:"rootLevelSpecification"`
	FieldName              string   `json:"fieldName"`
	FieldValues            []string `json:"fieldValues"`
}

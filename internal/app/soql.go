package app

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/dev-tams/gluekit/internal/fileio"
	"github.com/dev-tams/gluekit/internal/salesforce"
)

// SOQLRequest collects the inputs of a generated Salesforce query.
type SOQLRequest struct {
	Entity        string
	Fields        []string
	IgnoreIDs     []string
	IgnoreIDsFile string
}

// LoadSOQLRequest reads the [salesforce] table of a toml job file:
//
//	[salesforce]
//	entity = "Account"
//	fields = ["Id", "Name"]
//	ignore_ids = ["001..."]
//	ignore_ids_file = "ids.txt"
func LoadSOQLRequest(fs afero.Fs, path string) (SOQLRequest, error) {
	doc, err := fileio.ReadTOML(fs, path)
	if err != nil {
		return SOQLRequest{}, err
	}

	raw, ok := doc["salesforce"]
	if !ok {
		return SOQLRequest{}, fmt.Errorf("%s: missing [salesforce] table", path)
	}
	sf, err := cast.ToStringMapE(raw)
	if err != nil {
		return SOQLRequest{}, fmt.Errorf("%s: [salesforce]: %w", path, err)
	}

	fields, err := stringSlice(sf["fields"])
	if err != nil {
		return SOQLRequest{}, fmt.Errorf("%s: salesforce.fields: %w", path, err)
	}
	ids, err := stringSlice(sf["ignore_ids"])
	if err != nil {
		return SOQLRequest{}, fmt.Errorf("%s: salesforce.ignore_ids: %w", path, err)
	}

	return SOQLRequest{
		Entity:        cast.ToString(sf["entity"]),
		Fields:        fields,
		IgnoreIDs:     ids,
		IgnoreIDsFile: cast.ToString(sf["ignore_ids_file"]),
	}, nil
}

func stringSlice(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	return cast.ToStringSliceE(v)
}

// Merge overlays non-empty values from o onto r.
func (r SOQLRequest) Merge(o SOQLRequest) SOQLRequest {
	if o.Entity != "" {
		r.Entity = o.Entity
	}
	if len(o.Fields) > 0 {
		r.Fields = o.Fields
	}
	r.IgnoreIDs = append(append([]string(nil), r.IgnoreIDs...), o.IgnoreIDs...)
	if o.IgnoreIDsFile != "" {
		r.IgnoreIDsFile = o.IgnoreIDsFile
	}
	return r
}

// BuildSOQL resolves the ignore id file, if any, and renders the query.
func BuildSOQL(fs afero.Fs, req SOQLRequest) (string, error) {
	if req.Entity == "" {
		return "", fmt.Errorf("entity is required")
	}

	ids := append([]string(nil), req.IgnoreIDs...)
	if req.IgnoreIDsFile != "" {
		lines, err := fileio.ReadStrippedLines(fs, req.IgnoreIDsFile)
		if err != nil {
			return "", err
		}
		ids = append(ids, lines...)
	}

	return salesforce.BuildSecureSOQLQuery(req.Entity, req.Fields, ids)
}

package main

import (
	"fmt"
	"image/png"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/event-regform/internal/domain/entity"
	"github.com/garyjia/event-regform/internal/session"
	"github.com/garyjia/event-regform/internal/signature"
)

// fieldValue is one key of a record file, typed the way the record expects it
type fieldValue struct {
	name  string
	value interface{}
}

// parseRecord reads a flat YAML mapping of record fields. Booleans stay
// booleans; every other scalar is taken verbatim so phone numbers keep their
// leading zero.
func parseRecord(r io.Reader) ([]fieldValue, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("record must be a mapping, got line %d", root.Line)
	}

	fields := make([]fieldValue, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("field %s must be a scalar (line %d)", key.Value, val.Line)
		}

		if val.Tag == "!!bool" {
			var b bool
			if err := val.Decode(&b); err != nil {
				return nil, fmt.Errorf("field %s: %w", key.Value, err)
			}
			fields = append(fields, fieldValue{name: key.Value, value: b})
			continue
		}
		fields = append(fields, fieldValue{name: key.Value, value: val.Value})
	}
	return fields, nil
}

// applyRecordFile copies every field of the YAML file at path into s
func applyRecordFile(s *session.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fields, err := parseRecord(f)
	if err != nil {
		return err
	}
	for _, fv := range fields {
		if fv.name == entity.FieldAttendanceType {
			v, _ := fv.value.(string)
			if !entity.AttendanceType(v).IsValid() {
				return fmt.Errorf("attendanceType must be Onsite or Rerun, got %v", fv.value)
			}
		}
		if _, err := s.Update(fv.name, fv.value); err != nil {
			return err
		}
	}
	return nil
}

// applySignatureFile stores the PNG at path as the signature, trimmed to its ink
func applySignatureFile(s *session.Session, path string) (signature.Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return signature.Capture{}, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return signature.Capture{}, fmt.Errorf("failed to decode signature: %w", err)
	}
	dataURL, err := signature.EncodeDataURL(img)
	if err != nil {
		return signature.Capture{}, err
	}
	return s.UploadSignature(dataURL)
}

package dataprocessing

import (
	"encoding/json"
	"fmt"
	"io"

	"pricescope/internal/errors"
	"pricescope/pkg/contracts/domain"
)

// DecodeRecords reads a JSON array of flat objects. Key order is captured
// into RecordSet.Fields. Anything other than an array of objects is an input
// error and yields no records.
func DecodeRecords(r io.Reader) (domain.RecordSet, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return domain.RecordSet{}, err
	}

	var (
		fields  []string
		seen    = make(map[string]bool)
		records = make([]domain.PredictionRecord, 0)
	)

	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return domain.RecordSet{}, errors.NewInputError(
				fmt.Sprintf("record %d is not an object", len(records)), err)
		}

		rec := make(domain.PredictionRecord)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return domain.RecordSet{}, errors.NewInputError("read record key", err)
			}
			key, ok := tok.(string)
			if !ok {
				return domain.RecordSet{}, errors.NewInputError(fmt.Sprintf("unexpected token %v", tok), nil)
			}

			var value interface{}
			if err := dec.Decode(&value); err != nil {
				return domain.RecordSet{}, errors.NewInputError(
					fmt.Sprintf("decode value of %q", key), err)
			}
			rec[key] = value

			if !seen[key] {
				seen[key] = true
				fields = append(fields, key)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return domain.RecordSet{}, err
		}
		records = append(records, rec)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return domain.RecordSet{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return domain.RecordSet{}, errors.NewInputError("trailing data after record array", err)
	}

	return domain.RecordSet{Fields: fields, Records: records}, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.NewInputError(fmt.Sprintf("expected %q", want), err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.NewInputError(fmt.Sprintf("expected %q, got %v", want, tok), nil)
	}
	return nil
}

package rpc

import (
	"encoding/base64"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"xdao.co/paperledger/ledger"
	"xdao.co/paperledger/model"
)

// Field names used in Struct messages.
const (
	fieldID           = "id"
	fieldIndex        = "index"
	fieldTitle        = "title"
	fieldAuthor       = "author"
	fieldOwner        = "owner"
	fieldStatus       = "status"
	fieldContentID    = "contentId"
	fieldContentHash  = "contentHash"
	fieldSignature    = "signature"
	fieldCreatedAt    = "createdAt"
	fieldSubmittedAt  = "submittedAt"
	fieldUpdatedAt    = "updatedAt"
	fieldVersionCount = "versionCount"
	fieldAuditor      = "auditor"
	fieldPapers       = "papers"
	fieldCID          = "cid"
	fieldHash         = "hash"
)

// maxExactInt is the largest integer a protobuf double carries exactly.
const maxExactInt = 1 << 53

func getString(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}
	if _, isStr := v.GetKind().(*structpb.Value_StringValue); !isStr {
		return "", model.Errorf(model.KindInvalidArgument, "field %s must be a string", key)
	}
	return v.GetStringValue(), nil
}

func getUint(s *structpb.Struct, key string) (uint64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return 0, model.Errorf(model.KindInvalidArgument, "field %s must be a number", key)
	}
	n := v.GetNumberValue()
	if n < 0 || n > maxExactInt || n != math.Trunc(n) {
		return 0, model.Errorf(model.KindInvalidArgument, "field %s must be a non-negative integer", key)
	}
	return uint64(n), nil
}

func getHash(s *structpb.Struct, key string) (model.ContentHash, error) {
	str, err := getString(s, key)
	if err != nil || str == "" {
		return model.ContentHash{}, err
	}
	return model.ParseContentHash(str)
}

func getBytes(s *structpb.Struct, key string) ([]byte, error) {
	str, err := getString(s, key)
	if err != nil || str == "" {
		return nil, err
	}
	b, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, model.Wrap(model.KindInvalidArgument, "field "+key+" must be base64", err)
	}
	return b, nil
}

func getTime(s *structpb.Struct, key string) (time.Time, error) {
	str, err := getString(s, key)
	if err != nil || str == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return time.Time{}, model.Wrap(model.KindInternal, "field "+key+" is not a timestamp", err)
	}
	return t, nil
}

func newStruct(fields map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: fields}
}

func idStruct(id uint64) *structpb.Struct {
	return newStruct(map[string]*structpb.Value{fieldID: structpb.NewNumberValue(float64(id))})
}

func identityStruct(key string, id model.Identity) *structpb.Struct {
	return newStruct(map[string]*structpb.Value{key: structpb.NewStringValue(string(id))})
}

func encodeSubmission(s ledger.Submission) *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldTitle:       structpb.NewStringValue(s.Title),
		fieldAuthor:      structpb.NewStringValue(s.Author),
		fieldContentID:   structpb.NewStringValue(s.ContentID),
		fieldContentHash: structpb.NewStringValue(hashString(s.ContentHash)),
		fieldSignature:   structpb.NewStringValue(base64.StdEncoding.EncodeToString(s.Signature)),
	})
}

func decodeSubmission(in *structpb.Struct) (ledger.Submission, error) {
	var (
		s   ledger.Submission
		err error
	)
	if s.Title, err = getString(in, fieldTitle); err != nil {
		return s, err
	}
	if s.Author, err = getString(in, fieldAuthor); err != nil {
		return s, err
	}
	if s.ContentID, err = getString(in, fieldContentID); err != nil {
		return s, err
	}
	if s.ContentHash, err = getHash(in, fieldContentHash); err != nil {
		return s, err
	}
	if s.Signature, err = getBytes(in, fieldSignature); err != nil {
		return s, err
	}
	return s, nil
}

func encodeVersionInput(id uint64, in ledger.VersionInput) *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldID:          structpb.NewNumberValue(float64(id)),
		fieldContentID:   structpb.NewStringValue(in.ContentID),
		fieldContentHash: structpb.NewStringValue(hashString(in.ContentHash)),
		fieldSignature:   structpb.NewStringValue(base64.StdEncoding.EncodeToString(in.Signature)),
	})
}

func decodeVersionInput(in *structpb.Struct) (uint64, ledger.VersionInput, error) {
	var (
		v   ledger.VersionInput
		err error
	)
	id, err := getUint(in, fieldID)
	if err != nil {
		return 0, v, err
	}
	if v.ContentID, err = getString(in, fieldContentID); err != nil {
		return 0, v, err
	}
	if v.ContentHash, err = getHash(in, fieldContentHash); err != nil {
		return 0, v, err
	}
	if v.Signature, err = getBytes(in, fieldSignature); err != nil {
		return 0, v, err
	}
	return id, v, nil
}

// hashString leaves the zero hash empty so the server reports it as missing.
func hashString(h model.ContentHash) string {
	if h.IsZero() {
		return ""
	}
	return h.String()
}

func encodeVersion(v model.Version) *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldContentID:   structpb.NewStringValue(v.ContentID),
		fieldContentHash: structpb.NewStringValue(v.ContentHash.String()),
		fieldCreatedAt:   structpb.NewStringValue(v.CreatedAt.UTC().Format(time.RFC3339Nano)),
		fieldSignature:   structpb.NewStringValue(base64.StdEncoding.EncodeToString(v.Signature)),
	})
}

func decodeVersion(in *structpb.Struct) (model.Version, error) {
	var (
		v   model.Version
		err error
	)
	if v.ContentID, err = getString(in, fieldContentID); err != nil {
		return v, err
	}
	if v.ContentHash, err = getHash(in, fieldContentHash); err != nil {
		return v, err
	}
	if v.CreatedAt, err = getTime(in, fieldCreatedAt); err != nil {
		return v, err
	}
	if v.Signature, err = getBytes(in, fieldSignature); err != nil {
		return v, err
	}
	return v, nil
}

func encodePaperInfo(p model.PaperInfo) *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldID:           structpb.NewNumberValue(float64(p.ID)),
		fieldOwner:        structpb.NewStringValue(string(p.Owner)),
		fieldTitle:        structpb.NewStringValue(p.Title),
		fieldAuthor:       structpb.NewStringValue(p.Author),
		fieldStatus:       structpb.NewNumberValue(float64(p.Status)),
		fieldVersionCount: structpb.NewNumberValue(float64(p.VersionCount)),
		fieldSubmittedAt:  structpb.NewStringValue(p.SubmittedAt.UTC().Format(time.RFC3339Nano)),
		fieldUpdatedAt:    structpb.NewStringValue(p.UpdatedAt.UTC().Format(time.RFC3339Nano)),
	})
}

func decodePaperInfo(in *structpb.Struct) (model.PaperInfo, error) {
	var (
		p   model.PaperInfo
		err error
	)
	if p.ID, err = getUint(in, fieldID); err != nil {
		return p, err
	}
	owner, err := getString(in, fieldOwner)
	if err != nil {
		return p, err
	}
	p.Owner = model.Identity(owner)
	if p.Title, err = getString(in, fieldTitle); err != nil {
		return p, err
	}
	if p.Author, err = getString(in, fieldAuthor); err != nil {
		return p, err
	}
	st, err := getUint(in, fieldStatus)
	if err != nil {
		return p, err
	}
	p.Status = model.Status(st)
	if !p.Status.Valid() {
		return p, model.Errorf(model.KindInternal, "unknown status ordinal %d", st)
	}
	n, err := getUint(in, fieldVersionCount)
	if err != nil {
		return p, err
	}
	p.VersionCount = int(n)
	if p.SubmittedAt, err = getTime(in, fieldSubmittedAt); err != nil {
		return p, err
	}
	if p.UpdatedAt, err = getTime(in, fieldUpdatedAt); err != nil {
		return p, err
	}
	return p, nil
}

func encodeFilter(f ledger.Filter) *structpb.Struct {
	fields := map[string]*structpb.Value{}
	if !f.Owner.IsZero() {
		fields[fieldOwner] = structpb.NewStringValue(string(f.Owner))
	}
	if f.Status != nil {
		fields[fieldStatus] = structpb.NewNumberValue(float64(*f.Status))
	}
	return newStruct(fields)
}

func decodeFilter(in *structpb.Struct) (ledger.Filter, error) {
	var f ledger.Filter
	owner, err := getString(in, fieldOwner)
	if err != nil {
		return f, err
	}
	f.Owner = model.Identity(owner)
	if _, ok := in.GetFields()[fieldStatus]; ok {
		n, err := getUint(in, fieldStatus)
		if err != nil {
			return f, err
		}
		st := model.Status(n)
		if !st.Valid() {
			return f, model.Errorf(model.KindInvalidArgument, "unknown status ordinal %d", n)
		}
		f.Status = &st
	}
	return f, nil
}

func encodePaperList(ps []model.PaperInfo) *structpb.Struct {
	list := make([]*structpb.Value, 0, len(ps))
	for _, p := range ps {
		list = append(list, structpb.NewStructValue(encodePaperInfo(p)))
	}
	return newStruct(map[string]*structpb.Value{
		fieldPapers: structpb.NewListValue(&structpb.ListValue{Values: list}),
	})
}

func decodePaperList(in *structpb.Struct) ([]model.PaperInfo, error) {
	values := in.GetFields()[fieldPapers].GetListValue().GetValues()
	out := make([]model.PaperInfo, 0, len(values))
	for _, v := range values {
		p, err := decodePaperInfo(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

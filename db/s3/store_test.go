package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabiosv/aws-resources-mapper/db"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
	lastPut *awss3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.lastPut = in
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func graph() *api.NetworkGraph {
	return &api.NetworkGraph{
		NetworkID: "vpc-1",
		Nodes:     []string{"igw-1"},
		Edges:     []api.Edge{{Source: "igw-1", Target: "vpc-1", Kind: api.EdgeKindIGWVPC}},
	}
}

func TestStore_Save(t *testing.T) {
	client := newFakeS3()
	store := NewStore(client, Config{Bucket: "graphs", Prefix: "maps"}, zerolog.Nop())

	location, err := store.Save(context.Background(), graph())
	require.NoError(t, err)
	assert.Equal(t, "s3://graphs/maps/vpc-1_network_graph.json", location)
	assert.Equal(t, "application/json", aws.ToString(client.lastPut.ContentType))

	var doc api.Document
	require.NoError(t, json.Unmarshal(client.objects["maps/vpc-1_network_graph.json"], &doc))
	assert.Equal(t, [][2]string{{"igw-1", "vpc-1"}}, doc.Edges)
}

func TestStore_SaveFailure(t *testing.T) {
	client := newFakeS3()
	client.putErr = errors.New("access denied")
	store := db.Instrument(NewStore(client, Config{Bucket: "graphs"}, zerolog.Nop()), nil)

	_, err := store.Save(context.Background(), graph())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://graphs/vpc-1_network_graph.json")
	assert.Contains(t, err.Error(), "access denied")
}

func TestStore_Fetch(t *testing.T) {
	client := newFakeS3()
	client.objects["vpc-1_network_report.json"] = []byte(`{"subnets":[]}`)
	store := NewStore(client, Config{Bucket: "inventory"}, zerolog.Nop())

	data, err := store.Fetch(context.Background(), "vpc-1_network_report.json")
	require.NoError(t, err)
	assert.Equal(t, `{"subnets":[]}`, string(data))
}

func TestStore_FetchMissingKey(t *testing.T) {
	store := NewStore(newFakeS3(), Config{Bucket: "inventory"}, zerolog.Nop())

	_, err := store.Fetch(context.Background(), "vpc-9_network_report.json")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStore_Key(t *testing.T) {
	store := NewStore(nil, Config{Encode: db.EncodeOptions{Format: db.FormatYAML, Compress: true}}, zerolog.Nop())
	assert.Equal(t, "vpc-1_network_graph.yaml.sz", store.Key("vpc-1"))
}

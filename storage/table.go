package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// Codec maps values and patches of one collection to table entities.
type Codec[T any, P any] interface {
	EncodeEntity(partition string, v T) ([]byte, error)
	EncodePatch(partition, id string, p P) ([]byte, error)
	DecodeEntity(data []byte) (T, error)
}

// Table is a Collection stored in one Azure table under a single partition.
type Table[T Entity[T], P Patch[T]] struct {
	client    *aztables.Client
	partition string
	codec     Codec[T, P]
	newID     func() string
}

// NewTable creates a collection over an existing table client.
func NewTable[T Entity[T], P Patch[T]](client *aztables.Client, partition string, codec Codec[T, P]) *Table[T, P] {
	return &Table[T, P]{client: client, partition: partition, codec: codec, newID: nextKey}
}

// NewTableService connects to the table endpoint with the retry policy used for
// every collection.
func NewTableService(connStr string) (*aztables.ServiceClient, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	return aztables.NewServiceClientFromConnectionString(connStr, &opts)
}

func (t *Table[T, P]) List(ctx context.Context) ([]T, error) {
	filter := partitionFilter(t.partition)
	pager := t.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	out := []T{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			v, err := t.codec.DecodeEntity(e)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (t *Table[T, P]) Create(ctx context.Context, v T) (string, error) {
	id := t.newID()
	payload, err := t.codec.EncodeEntity(t.partition, v.WithID(id))
	if err != nil {
		return "", err
	}
	if _, err := t.client.AddEntity(ctx, payload, nil); err != nil {
		return "", err
	}
	return id, nil
}

func (t *Table[T, P]) Update(ctx context.Context, id string, patch P) error {
	payload, err := t.codec.EncodePatch(t.partition, id, patch)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = t.client.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	return notFound(err)
}

func (t *Table[T, P]) Delete(ctx context.Context, id string) error {
	et := azcore.ETagAny
	_, err := t.client.DeleteEntity(ctx, t.partition, id, &aztables.DeleteEntityOptions{IfMatch: &et})
	return notFound(err)
}

// partitionFilter quotes p as an OData string literal.
func partitionFilter(p string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(p, "'", "''") + "'"
}

func notFound(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}

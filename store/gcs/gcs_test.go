package gcs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"reflect"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/testutil"
)

func TestEachHexPrefix(t *testing.T) {
	want := []string{
		"e67b", "e67c", "e67d", "e67e", "e67f",
		"e68", "e69", "e6a", "e6b", "e6c", "e6d", "e6e", "e6f",
		"e7", "e8", "e9", "ea", "eb", "ec", "ed", "ee", "ef",
		"f",
	}
	var got []string
	err := eachHexPrefix("e67a", false, func(prefix string) error {
		got = append(got, prefix)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestChunkObjName(t *testing.T) {
	addr := bzz.Address{0xca, 0x63, 0x57}
	got, err := addrFromChunkObjName(chunkObjName(addr))
	if err != nil {
		t.Fatal(err)
	}
	if got != addr {
		t.Errorf("got %s, want %s", got, addr)
	}
}

const (
	credsVar = "BZZ_GCS_TESTING_CREDS"
	projVar  = "BZZ_GCS_TESTING_PROJECT"
)

func TestStore(t *testing.T) {
	var (
		creds     = os.Getenv(credsVar)
		projectID = os.Getenv(projVar)
	)
	if creds == "" || projectID == "" {
		t.Skipf("to run TestStore, set %s to the name of a credentials file and %s to a project ID", credsVar, projVar)
	}

	var r [30]byte
	_, err := rand.Read(r[:])
	if err != nil {
		t.Fatal(err)
	}
	bucketName := hex.EncodeToString(r[:])

	ctx := context.Background()

	client, err := storage.NewClient(ctx, option.WithCredentialsFile(creds))
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("creating bucket %s in project %s", bucketName, projectID)

	bucket := client.Bucket(bucketName)
	err = bucket.Create(ctx, projectID, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer deleteBucket(ctx, t, bucket)

	s := New(bucket)
	testutil.ReadWrite(ctx, t, s, testutil.Data(1, 300000))
	testutil.Chunks(ctx, t, s)
}

func deleteBucket(ctx context.Context, t *testing.T, bucket *storage.BucketHandle) {
	iter := bucket.Objects(ctx, nil)
	for {
		obj, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			t.Logf("listing objects for deletion: %s", err)
			return
		}
		if err = bucket.Object(obj.Name).Delete(ctx); err != nil {
			t.Logf("deleting object %s: %s", obj.Name, err)
		}
	}
	if err := bucket.Delete(ctx); err != nil {
		t.Logf("deleting bucket: %s", err)
	}
}

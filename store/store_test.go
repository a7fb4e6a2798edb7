package store

import (
	"context"
	"errors"
	"github.com/gofrs/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

var runA = uuid.Must(uuid.FromString("0b7e9a4c-3c1f-4c43-9a55-3f6b0f1e2d11"))
var runB = uuid.Must(uuid.FromString("5d2f4a10-8e0b-4b6e-b1d2-2b7c9e0a4f33"))

func TestObjectKey(t *testing.T) {
	key := ObjectKey(runA, "/data/vulnerability/healthy-places/points-lsoa.csv")
	assert.Equal(t, "runs/0b7e9a4c-3c1f-4c43-9a55-3f6b0f1e2d11/points-lsoa.csv", key)

	id, err := RunID(key)
	require.NoError(t, err)
	assert.Equal(t, runA, id)

	_, err = RunID("flickr/123/medium.jpg")
	assert.Error(t, err)
	_, err = RunID("runs/not-a-uuid/x.csv")
	assert.Error(t, err)
}

func TestUpload(t *testing.T) {
	mc := mockMC(t).expectFPutObject(
		"bucket",
		"runs/0b7e9a4c-3c1f-4c43-9a55-3f6b0f1e2d11/out.csv",
		minio.PutObjectOptions{ContentType: "text/csv"},
		nil,
	)
	key, err := Upload(context.Background(), mc, "bucket", runA, "/tmp/out.csv")
	require.NoError(t, err)
	assert.Equal(t, "runs/0b7e9a4c-3c1f-4c43-9a55-3f6b0f1e2d11/out.csv", key)
	mc.assertDone()

	mc = mockMC(t).expectFPutObject("bucket", "runs/0b7e9a4c-3c1f-4c43-9a55-3f6b0f1e2d11/out.csv",
		minio.PutObjectOptions{ContentType: "text/csv"}, errors.New("denied"))
	_, err = Upload(context.Background(), mc, "bucket", runA, "/tmp/out.csv")
	assert.ErrorContains(t, err, "denied")
}

func TestReconcile(t *testing.T) {
	b := &bucketMock{objects: []string{
		"runs/" + runA.String() + "/a.csv",
		"runs/" + runA.String() + "/b.csv",
		"runs/" + runB.String() + "/a.csv",
		"runs/stray.csv",
	}}
	var lookups int
	exists := func(_ context.Context, id uuid.UUID) (bool, error) {
		lookups++
		return id == runA, nil
	}

	removed, err := Reconcile(context.Background(), b, "bucket", exists, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/" + runB.String() + "/a.csv"}, removed)
	assert.Empty(t, b.removed)
	assert.Equal(t, 2, lookups)

	removed, err = Reconcile(context.Background(), b, "bucket", exists, false)
	require.NoError(t, err)
	assert.Equal(t, removed, b.removed)
}

type mcMock struct {
	t       *testing.T
	mu      sync.Mutex
	expects []mcExpectFPutObject
}

type mcExpectFPutObject struct {
	bucketName, objectName string
	opts                   minio.PutObjectOptions
	err                    error
}

func mockMC(t *testing.T) *mcMock {
	return &mcMock{t: t}
}

func (m *mcMock) expectFPutObject(bucketName, objectName string, opts minio.PutObjectOptions, err error) *mcMock {
	m.expects = append(m.expects, mcExpectFPutObject{bucketName, objectName, opts, err})
	return m
}

func (m *mcMock) assertDone() {
	assert.Empty(m.t, m.expects, "expected more calls to FPutObject")
}

func (m *mcMock) FPutObject(_ context.Context, bucketName, objectName string, _ string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.expects) == 0 {
		m.t.Fatalf("unexpected call to FPutObject")
	}
	exp := m.expects[0]
	m.expects = m.expects[1:]

	assert.Equal(m.t, exp.bucketName, bucketName)
	assert.Equal(m.t, exp.objectName, objectName)
	assert.Equal(m.t, exp.opts, opts)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, exp.err
}

type bucketMock struct {
	objects []string
	removed []string
}

func (b *bucketMock) ListObjects(_ context.Context, _ string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(b.objects))
	for _, key := range b.objects {
		ch <- minio.ObjectInfo{Key: key}
	}
	close(ch)
	return ch
}

func (b *bucketMock) RemoveObject(_ context.Context, _ string, objectName string, _ minio.RemoveObjectOptions) error {
	b.removed = append(b.removed, objectName)
	return nil
}

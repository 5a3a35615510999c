package archive

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomBookingManagement/internal/config"
	"roomBookingManagement/internal/errs"
	"roomBookingManagement/internal/testutil"
)

// fakeS3 keeps objects in memory and implements the calls S3Provider makes.
type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.StringValue(in.Bucket) + "/" + aws.StringValue(in.Key)
	f.objects[key] = b
	f.types[key] = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	bucket := aws.StringValue(in.Bucket) + "/"
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, bucket+aws.StringValue(in.Prefix)) {
			keys = append(keys, strings.TrimPrefix(k, bucket))
		}
	}
	sort.Strings(keys)
	page := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		page.Contents = append(page.Contents, &s3.Object{Key: aws.String(k)})
	}
	fn(page, true)
	return nil
}

func TestS3Provider_PutGetList(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	p := NewS3Provider(api, "backups")

	require.NoError(t, p.Put(ctx, "b1/rooms.txt", strings.NewReader("A Chetan 1 Yes none\n"), textContentType))
	assert.Equal(t, textContentType, api.types["backups/b1/rooms.txt"])

	rc, err := p.Get(ctx, "b1/rooms.txt")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "A Chetan 1 Yes none\n", string(body))

	_, err = p.Get(ctx, "b1/nothing.txt")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	keys, err := p.List(ctx, "b1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1/rooms.txt"}, keys)
}

func TestS3Provider_ExportImport(t *testing.T) {
	ctx := context.Background()
	p := NewS3Provider(newFakeS3(), "backups")

	src := newService(t, "archives3src")
	seed(t, src)
	require.NoError(t, NewExporter(src, p, testutil.NullLogger()).Export(ctx, "nightly"))

	dst := newService(t, "archives3dst")
	report, err := NewImporter(dst, p, testutil.NullLogger()).Import(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rooms)
}

func TestNew_SelectsProvider(t *testing.T) {
	p, err := New(config.ArchiveConfig{Provider: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalProvider{}, p)

	p, err = New(config.ArchiveConfig{Provider: "s3", Bucket: "b", Region: "us-east-1", Endpoint: "http://localhost:9000", KeyID: "k", AppKey: "s"})
	require.NoError(t, err)
	assert.IsType(t, &S3Provider{}, p)

	_, err = New(config.ArchiveConfig{Provider: "s3"})
	assert.Error(t, err)
	_, err = New(config.ArchiveConfig{Provider: "ftp"})
	assert.Error(t, err)
}

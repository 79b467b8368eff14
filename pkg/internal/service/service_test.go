package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/glebarez/sqlite"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/yeisme/voxvault/pkg/configs"
	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/provider/anthropic"
	"github.com/yeisme/voxvault/pkg/internal/provider/assemblyai"
	"github.com/yeisme/voxvault/pkg/internal/provider/youtubetx"
)

// ---------------------------- 测试替身 ----------------------------

// fakeStore 内存对象存储.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	putErr    error
	removeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Bucket() string { return "test-bucket" }

func (f *fakeStore) Put(_ context.Context, objectKey string, reader io.Reader, _ int64, _ string) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}

	f.mu.Lock()
	f.objects[objectKey] = data
	f.mu.Unlock()

	return minio.UploadInfo{Bucket: f.Bucket(), Key: objectKey, Size: int64(len(data))}, nil
}

func (f *fakeStore) SignedGetURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://signed.example/" + objectKey, nil
}

func (f *fakeStore) Remove(_ context.Context, objectKey string) error {
	if f.removeErr != nil {
		return f.removeErr
	}

	f.mu.Lock()
	delete(f.objects, objectKey)
	f.mu.Unlock()

	return nil
}

func (f *fakeStore) has(objectKey string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.objects[objectKey]

	return ok
}

// fakePublisher 记录发布的消息.
type fakePublisher struct {
	mu        sync.Mutex
	published map[string][]*message.Message
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(map[string][]*message.Message)}
}

func (p *fakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.published[topic] = append(p.published[topic], msgs...)

	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) topicMessages(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.published[topic]
}

// fakeSpeech 固定结果的转写服务.
type fakeSpeech struct {
	result *assemblyai.Transcript
	err    error

	mu       sync.Mutex
	audioURL string
}

func (f *fakeSpeech) Transcribe(_ context.Context, audioURL string) (*assemblyai.Transcript, error) {
	f.mu.Lock()
	f.audioURL = audioURL
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	return f.result, nil
}

// fakeChat 固定输出的对话模型.
type fakeChat struct {
	completeOut string
	completeErr error

	streamChunks []string
	streamErr    error

	mu         sync.Mutex
	lastSystem string
	lastUser   string
}

func (f *fakeChat) Complete(_ context.Context, system string, msgs []anthropic.MessageParam) (string, error) {
	f.mu.Lock()
	f.lastSystem = system

	if len(msgs) > 0 {
		f.lastUser = msgs[len(msgs)-1].Content
	}
	f.mu.Unlock()

	if f.completeErr != nil {
		return "", f.completeErr
	}

	return f.completeOut, nil
}

func (f *fakeChat) Stream(_ context.Context, system string, msgs []anthropic.MessageParam, fn func(delta string) error) error {
	f.mu.Lock()
	f.lastSystem = system

	if len(msgs) > 0 {
		f.lastUser = msgs[len(msgs)-1].Content
	}
	f.mu.Unlock()

	for _, chunk := range f.streamChunks {
		if err := fn(chunk); err != nil {
			return err
		}
	}

	return f.streamErr
}

// fakeYT 固定结果的字幕抓取服务.
type fakeYT struct {
	result *youtubetx.VideoTranscript
	ok     bool
	err    error

	mu     sync.Mutex
	called bool
}

func (f *fakeYT) Fetch(_ context.Context, videoID string) (*youtubetx.VideoTranscript, bool, error) {
	f.mu.Lock()
	f.called = true
	f.mu.Unlock()

	if f.err != nil {
		return nil, false, f.err
	}

	if !f.ok {
		return nil, false, nil
	}

	res := *f.result
	res.VideoID = videoID

	return &res, true, nil
}

// ---------------------------- 测试环境 ----------------------------

type testEnv struct {
	svc    *PipelineService
	db     *gorm.DB
	store  *fakeStore
	pub    *fakePublisher
	speech *fakeSpeech
	chat   *fakeChat
	yt     *fakeYT
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	env := &testEnv{
		db:     db,
		store:  newFakeStore(),
		pub:    newFakePublisher(),
		speech: &fakeSpeech{},
		chat:   &fakeChat{},
		yt:     &fakeYT{},
	}

	env.svc = &PipelineService{
		db:     db,
		store:  env.store,
		pub:    env.pub,
		speech: env.speech,
		chat:   env.chat,
		yt:     env.yt,
		providers: configs.ProvidersConfig{
			AssemblyAI: configs.AssemblyAIConfig{SignedURLExpiry: 3600},
		},
	}

	return env
}

// seedFile 插入一个文件行.
func (e *testEnv) seedFile(t *testing.T, user, status string) *model.File {
	t.Helper()

	f := &model.File{
		ID:          fmt.Sprintf("file-%d", seedCounter()),
		User:        user,
		FileName:    "talk.mp3",
		ContentType: "audio/mpeg",
		Size:        1024,
		ObjectKey:   user + "/talk.mp3",
		Bucket:      "test-bucket",
		SourceType:  model.SourceUpload,
		Status:      status,
	}

	if err := e.db.Create(f).Error; err != nil {
		t.Fatalf("seed file: %v", err)
	}

	return f
}

// seedTranscription 插入一条转写行.
func (e *testEnv) seedTranscription(t *testing.T, fileID, text string) *model.Transcription {
	t.Helper()

	tr := &model.Transcription{
		FileID:         fileID,
		TranscriptText: text,
		WordCount:      len(strings.Fields(text)),
		Service:        transcribeServiceName,
	}

	if err := e.db.Create(tr).Error; err != nil {
		t.Fatalf("seed transcription: %v", err)
	}

	return tr
}

// fileStatus 读取文件当前状态.
func (e *testEnv) fileStatus(t *testing.T, fileID string) string {
	t.Helper()

	var f model.File
	if err := e.db.First(&f, "id = ?", fileID).Error; err != nil {
		t.Fatalf("load file: %v", err)
	}

	return f.Status
}

var (
	seedMu sync.Mutex
	seedN  int
)

func seedCounter() int {
	seedMu.Lock()
	defer seedMu.Unlock()

	seedN++

	return seedN
}

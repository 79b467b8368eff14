package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/internal/provider/assemblyai"
	"github.com/yeisme/voxvault/pkg/queue"
)

// TestUpload_Success 测试上传：对象落盘、建档、请求内同步转写.
func TestUpload_Success(t *testing.T) {
	env := newTestEnv(t)

	env.speech.result = &assemblyai.Transcript{Text: "uploaded audio words"}

	resp, err := env.svc.Upload(context.Background(), "alice", "meeting.mp3", "audio/mpeg",
		4, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if !resp.Success || resp.Status != model.StatusTranscribed {
		t.Errorf("unexpected response: %+v", resp)
	}

	var file model.File
	if err := env.db.First(&file, "id = ?", resp.FileID).Error; err != nil {
		t.Fatalf("file row missing: %v", err)
	}

	// 对象键格式 user/<uuid>-<filename>
	wantPrefix := "alice/" + file.ID + "-"
	if !strings.HasPrefix(file.ObjectKey, wantPrefix) || !strings.HasSuffix(file.ObjectKey, "meeting.mp3") {
		t.Errorf("unexpected object key: %s", file.ObjectKey)
	}

	if !env.store.has(file.ObjectKey) {
		t.Errorf("object not stored at %s", file.ObjectKey)
	}

	if got := env.pub.topicMessages(queue.TopicFileStored); len(got) != 1 {
		t.Errorf("expected 1 file.stored event, got %d", len(got))
	}

	var tr model.Transcription
	if err := env.db.First(&tr, "file_id = ?", file.ID).Error; err != nil {
		t.Errorf("transcription row missing after synchronous transcribe: %v", err)
	}
}

// TestUpload_TranscribeFailure 测试同步转写失败：文件保留且状态 failed.
func TestUpload_TranscribeFailure(t *testing.T) {
	env := newTestEnv(t)

	env.speech.err = fmt.Errorf("provider down")

	resp, err := env.svc.Upload(context.Background(), "alice", "meeting.mp3", "audio/mpeg",
		4, strings.NewReader("data"))
	if err == nil {
		t.Fatal("expected error")
	}

	if resp == nil || resp.Success || resp.Status != model.StatusFailed {
		t.Errorf("unexpected response: %+v", resp)
	}

	if got := env.fileStatus(t, resp.FileID); got != model.StatusFailed {
		t.Errorf("expected status failed, got %s", got)
	}
}

// TestUpload_EmptyFileName 测试缺少文件名.
func TestUpload_EmptyFileName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Upload(context.Background(), "alice", "", "audio/mpeg", 0, strings.NewReader(""))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

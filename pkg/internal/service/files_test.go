package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yeisme/voxvault/pkg/internal/model"
	"github.com/yeisme/voxvault/pkg/queue"
)

// TestListFiles_ScopedToUser 测试列表只含本人文件.
func TestListFiles_ScopedToUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedFile(t, "alice", model.StatusCompleted)
	env.seedFile(t, "alice", model.StatusTranscribed)
	env.seedFile(t, "bob", model.StatusCompleted)

	resp, err := env.svc.ListFiles(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	if resp.Total != 2 || len(resp.Files) != 2 {
		t.Errorf("expected 2 files for alice, got %d", resp.Total)
	}
}

// TestGetFile_WithViews 测试详情附带转写与展开后的分析视图.
func TestGetFile_WithViews(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusCompleted)
	env.seedTranscription(t, file.ID, "the words")

	an := &model.Analysis{
		FileID:        file.ID,
		Summary:       "short summary",
		KeyPointsJSON: `["a","b"]`,
		TopicsJSON:    `["go"]`,
		Service:       analysisServiceName,
	}
	if err := env.db.Create(an).Error; err != nil {
		t.Fatalf("seed analysis: %v", err)
	}

	resp, err := env.svc.GetFile(context.Background(), "alice", file.ID)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}

	if resp.Transcription == nil || resp.Transcription.TranscriptText != "the words" {
		t.Errorf("unexpected transcription view: %+v", resp.Transcription)
	}

	if resp.Analysis == nil {
		t.Fatal("expected analysis view")
	}

	if len(resp.Analysis.KeyPoints) != 2 || resp.Analysis.KeyPoints[1] != "b" {
		t.Errorf("unexpected key points: %v", resp.Analysis.KeyPoints)
	}

	// 未设置的 JSON 列展开为空列表而不是 nil
	if resp.Analysis.ActionItems == nil {
		t.Error("expected empty action items list")
	}
}

// TestGetFile_Forbidden 测试他人文件详情被拒绝.
func TestGetFile_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusCompleted)

	_, err := env.svc.GetFile(context.Background(), "bob", file.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// TestDeleteFile_CascadesAndIsFinal 测试删除级联清理且二次删除返回 NotFound.
func TestDeleteFile_CascadesAndIsFinal(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusCompleted)
	env.seedTranscription(t, file.ID, "words")

	if err := env.db.Create(&model.Analysis{FileID: file.ID, Service: analysisServiceName}).Error; err != nil {
		t.Fatalf("seed analysis: %v", err)
	}

	if err := env.db.Create(&model.ChatMessage{FileID: file.ID, Role: model.RoleUser, Content: "hi"}).Error; err != nil {
		t.Fatalf("seed chat message: %v", err)
	}

	env.store.objects[file.ObjectKey] = []byte("data")

	resp, err := env.svc.DeleteFile(context.Background(), "alice", file.ID)
	if err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}

	if !resp.Success {
		t.Error("expected success response")
	}

	if env.store.has(file.ObjectKey) {
		t.Error("object should be removed")
	}

	for _, m := range []any{&model.File{}, &model.Transcription{}, &model.Analysis{}, &model.ChatMessage{}} {
		var count int64
		_ = env.db.Model(m).Count(&count).Error

		if count != 0 {
			t.Errorf("expected no remaining %T rows, got %d", m, count)
		}
	}

	if got := env.pub.topicMessages(queue.TopicFileDeleted); len(got) != 1 {
		t.Errorf("expected 1 file.deleted event, got %d", len(got))
	}

	// 二次删除
	if _, err := env.svc.DeleteFile(context.Background(), "alice", file.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

// TestDeleteFile_ObjectRemovalBestEffort 测试对象删除失败不阻塞行删除.
func TestDeleteFile_ObjectRemovalBestEffort(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusCompleted)

	env.store.removeErr = errors.New("s3 unavailable")

	resp, err := env.svc.DeleteFile(context.Background(), "alice", file.ID)
	if err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}

	if !resp.Success {
		t.Error("expected success despite object removal failure")
	}

	var count int64
	_ = env.db.Model(&model.File{}).Count(&count).Error

	if count != 0 {
		t.Errorf("file row should be deleted, got %d rows", count)
	}
}

// TestDeleteFile_Forbidden 测试删除他人文件被拒绝.
func TestDeleteFile_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	file := env.seedFile(t, "alice", model.StatusCompleted)

	_, err := env.svc.DeleteFile(context.Background(), "bob", file.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

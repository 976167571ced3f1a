package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mingyan/blogserver/config"
	"github.com/mingyan/blogserver/middleware"
	"github.com/mingyan/blogserver/query"
	"github.com/mingyan/blogserver/services"
	"github.com/mingyan/blogserver/utils"
)

const excerptRunes = 300

// PostController exposes posts, tags, likes and comment threads over HTTP.
type PostController struct {
	content *services.ContentService
}

// NewPostController creates a new PostController instance.
func NewPostController(content *services.ContentService) *PostController {
	return &PostController{content: content}
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func parseOptionalUint(s string) *uint {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// ListPosts returns one page of posts with tags, counts and, for signed-in
// viewers, liked state. Listing bodies are cut down to a plain-text excerpt.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	filter := query.PostFilter{
		ViewerID:   middleware.ViewerID(ctx),
		AuthorID:   parseOptionalUint(ctx.Query("author_id")),
		CategoryID: parseOptionalUint(ctx.Query("category_id")),
		TagID:      parseOptionalUint(ctx.Query("tag_id")),
		Keyword:    strings.TrimSpace(ctx.Query("keyword")),
		Page:       page,
		PageSize:   pageSize,
	}

	result, err := p.content.ListPosts(ctx.Request.Context(), filter)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list posts")
		return
	}
	for i := range result.List {
		result.List[i].Content = utils.Excerpt(result.List[i].Content, excerptRunes)
	}

	utils.Success(ctx, result)
}

// GetPost returns a single post with its neighbors. Every fetch counts as a
// view.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := pathID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid post id")
		return
	}

	detail, err := p.content.GetPostDetail(ctx.Request.Context(), postID, middleware.ViewerID(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	if detail == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	utils.Success(ctx, detail)
}

// LikePost toggles the viewer's like on a post. The response reports whether
// the store actually changed.
func (p *PostController) LikePost(ctx *gin.Context) {
	postID, ok := pathID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid post id")
		return
	}
	viewerID := middleware.ViewerID(ctx)
	if viewerID == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Liked *bool `json:"liked" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid request payload")
		return
	}

	changed, err := p.content.TogglePostLike(ctx.Request.Context(), *viewerID, postID, *req.Liked)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to update like")
		return
	}

	utils.Success(ctx, gin.H{"liked": *req.Liked, "changed": changed})
}

// GetTags lists tags. With ?counts=1 each tag carries its usage count and the
// list is ordered most used first.
func (p *PostController) GetTags(ctx *gin.Context) {
	if ctx.Query("counts") == "1" {
		counts, err := p.content.ListTagsWithCounts(ctx.Request.Context())
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list tags")
			return
		}
		utils.Success(ctx, counts)
		return
	}

	tags, err := p.content.ListTags(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list tags")
		return
	}
	utils.Success(ctx, tags)
}

// ListComments returns one page of a post's comment threads.
func (p *PostController) ListComments(ctx *gin.Context) {
	postID, ok := pathID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid post id")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	result, err := p.content.ListComments(ctx.Request.Context(), postID, page, pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to list comments")
		return
	}

	utils.Success(ctx, result)
}

// CreateComment adds a comment or a reply to a post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	postID, ok := pathID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid post id")
		return
	}
	viewerID := middleware.ViewerID(ctx)
	if viewerID == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
		return
	}

	nicknameVal, _ := ctx.Get(middleware.ContextNicknameKey)
	nickname, _ := nicknameVal.(string)

	id, err := p.content.AddComment(ctx.Request.Context(), postID, *viewerID, nickname, req.ParentID, content)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40028, err.Error())
		return
	}

	utils.Success(ctx, gin.H{"id": id})
}

func bindPostInput(ctx *gin.Context) (services.PostInput, bool) {
	var req struct {
		Title        string `json:"title" binding:"required,min=1"`
		Content      string `json:"content" binding:"required"`
		CategoryID   uint   `json:"category_id"`
		CategoryName string `json:"category_name"`
		TagIDs       []uint `json:"tag_ids"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return services.PostInput{}, false
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40025, "title cannot be empty")
		return services.PostInput{}, false
	}

	return services.PostInput{
		Title:        title,
		CategoryID:   req.CategoryID,
		CategoryName: strings.TrimSpace(req.CategoryName),
		Content:      utils.Sanitize(req.Content),
		TagIDs:       req.TagIDs,
	}, true
}

// CreatePost allows authenticated users to publish new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	viewerID := middleware.ViewerID(ctx)
	if viewerID == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	input, ok := bindPostInput(ctx)
	if !ok {
		return
	}

	nicknameVal, _ := ctx.Get(middleware.ContextNicknameKey)
	nickname, _ := nicknameVal.(string)

	id, err := p.content.AddPost(ctx.Request.Context(), *viewerID, nickname, input)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.Success(ctx, gin.H{"id": id})
}

// UpdatePost allows the author to update their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	postID, ok := pathID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid post id")
		return
	}
	viewerID := middleware.ViewerID(ctx)
	if viewerID == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	input, bound := bindPostInput(ctx)
	if !bound {
		return
	}

	err := p.content.UpdatePost(ctx.Request.Context(), postID, *viewerID, input)
	switch {
	case errors.Is(err, services.ErrNotOwner):
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own posts")
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
	default:
		utils.Success(ctx, gin.H{"message": "post updated"})
	}
}

// DeletePost allows the author to delete their post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, ok := pathID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid post id")
		return
	}
	viewerID := middleware.ViewerID(ctx)
	if viewerID == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	err := p.content.DeletePost(ctx.Request.Context(), postID, *viewerID)
	switch {
	case errors.Is(err, services.ErrNotOwner):
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
	default:
		utils.Success(ctx, gin.H{"message": "post deleted"})
	}
}

// UploadImage stores an image for embedding in post bodies and returns its
// public URL.
func (p *PostController) UploadImage(ctx *gin.Context) {
	viewerID := middleware.ViewerID(ctx)
	if viewerID == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	const maxSize = 10 * 1024 * 1024
	if header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds 10MB")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		utils.Error(ctx, http.StatusBadRequest, 40033, "unsupported image type")
		return
	}

	cfg := config.Get()
	now := time.Now()
	baseDir := filepath.Join(cfg.UploadDir, now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to create upload directory")
		return
	}

	name := uuid.NewString() + ext
	dstPath := filepath.Join(baseDir, name)
	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to save file")
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(file, maxSize)); err != nil {
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to write file")
		return
	}

	url := fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(cfg.UploadBaseURL, "/"), now.Format("2006"), now.Format("01"), name)
	utils.Success(ctx, gin.H{"url": url})
}

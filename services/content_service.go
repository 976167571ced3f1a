// Package services holds the composition roots orchestrating the query
// composer, the result shaper and the cache-aside store.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mingyan/blogserver/models"
	"github.com/mingyan/blogserver/query"
	"github.com/mingyan/blogserver/utils"
)

// ErrNotOwner is returned when a caller tries to modify a record they do not
// own. Ownership is the only authorization the content layer models.
var ErrNotOwner = errors.New("not the record owner")

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// PostList is the listing envelope.
type PostList struct {
	List     []query.PostRow `json:"list"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// CommentList is the comment-thread envelope. Total counts top-level
// comments only.
type CommentList struct {
	List     []query.CommentRow `json:"list"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

// PostInput carries the fields for creating or replacing a post.
type PostInput struct {
	Title        string
	CategoryID   uint
	CategoryName string
	Content      string
	TagIDs       []uint
}

// ContentService serves posts, tags, likes and comment threads.
type ContentService struct {
	db *gorm.DB
}

// NewContentService wires the service to its store handle.
func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{db: db}
}

func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

// ListPosts returns one aggregated row per post matching the filter, newest
// first. A count failure degrades to total 0 rather than failing the page.
func (s *ContentService) ListPosts(ctx context.Context, f query.PostFilter) (*PostList, error) {
	f.Page, f.PageSize = clampPaging(f.Page, f.PageSize)

	stmt := query.PostList(f)
	rows := []query.PostRow{}
	if err := s.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if err := shapePostRow(&rows[i]); err != nil {
			return nil, err
		}
	}

	total, err := s.CountPosts(ctx, f)
	if err != nil {
		utils.Sugar.Warnf("count posts failed, serving page with total=0: %v", err)
		total = 0
	}

	return &PostList{List: rows, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// CountPosts collapses the listing predicate to a distinct-post count,
// ignoring pagination and the viewer.
func (s *ContentService) CountPosts(ctx context.Context, f query.PostFilter) (int64, error) {
	stmt := query.PostCount(f)
	var total int64
	if err := s.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetPostDetail increments the view counter and reads the post back with its
// neighbors. The increment comes first and is best-effort: a fetch counts as
// a view even when the later read fails, and an increment failure does not
// block the read. A missing post yields (nil, nil). Neighbor lookups degrade
// to nil on failure.
func (s *ContentService) GetPostDetail(ctx context.Context, postID uint, viewerID *uint) (*query.PostDetailRow, error) {
	inc := query.PostViewIncrement(postID)
	if err := s.db.WithContext(ctx).Exec(inc.SQL, inc.Args...).Error; err != nil {
		utils.Sugar.Warnf("view increment failed for post %d: %v", postID, err)
	}

	stmt := query.PostDetail(postID, viewerID)
	rows := []query.PostRow{}
	if err := s.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	if err := shapePostRow(&row); err != nil {
		return nil, err
	}

	detail := &query.PostDetailRow{PostRow: row}
	detail.PrevPost = s.neighbor(ctx, query.PostPrev(postID))
	detail.NextPost = s.neighbor(ctx, query.PostNext(postID))
	return detail, nil
}

// neighbor runs a prev/next statement; absence or failure both yield nil.
func (s *ContentService) neighbor(ctx context.Context, stmt query.Statement) *query.PostRef {
	refs := []query.PostRef{}
	if err := s.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&refs).Error; err != nil {
		utils.Sugar.Warnf("neighbor lookup failed: %v", err)
		return nil
	}
	if len(refs) == 0 {
		return nil
	}
	return &refs[0]
}

// TogglePostLike records or removes a like. It reports true iff at least one
// row was affected: liking an already-liked post affects zero rows (the
// unique pair index plus INSERT IGNORE), as does unliking a post that was
// never liked.
func (s *ContentService) TogglePostLike(ctx context.Context, viewerID, postID uint, liked bool) (bool, error) {
	var stmt query.Statement
	if liked {
		stmt = query.LikeInsert(viewerID, postID, time.Now())
	} else {
		stmt = query.LikeDelete(viewerID, postID)
	}
	tx := s.db.WithContext(ctx).Exec(stmt.SQL, stmt.Args...)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ListTags returns all tags.
func (s *ContentService) ListTags(ctx context.Context) ([]query.TagRef, error) {
	stmt := query.TagList()
	tags := []query.TagRef{}
	if err := s.db.WithContext(ctx).Raw(stmt.SQL).Scan(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// ListTagsWithCounts returns tags with their usage counts, most used first.
func (s *ContentService) ListTagsWithCounts(ctx context.Context) ([]query.TagCount, error) {
	stmt := query.TagCounts()
	counts := []query.TagCount{}
	if err := s.db.WithContext(ctx).Raw(stmt.SQL).Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// ListComments returns one page of top-level comments, each carrying its
// complete reply thread in conversation order.
func (s *ContentService) ListComments(ctx context.Context, postID uint, page, pageSize int) (*CommentList, error) {
	page, pageSize = clampPaging(page, pageSize)

	stmt := query.CommentList(postID, page, pageSize)
	rows := []query.CommentRow{}
	if err := s.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if err := shapeCommentRow(&rows[i]); err != nil {
			return nil, err
		}
	}

	countStmt := query.CommentCount(postID)
	var total int64
	if err := s.db.WithContext(ctx).Raw(countStmt.SQL, countStmt.Args...).Scan(&total).Error; err != nil {
		return nil, err
	}

	return &CommentList{List: rows, Total: total, Page: page, PageSize: pageSize}, nil
}

// AddComment inserts a comment. For replies the thread root is resolved
// server-side: the parent must exist and belong to the same post, and the
// stored parent_grand_id is the parent's own root (or the parent itself when
// the parent is top-level). Callers cannot supply an inconsistent chain.
func (s *ContentService) AddComment(ctx context.Context, postID, authorID uint, authorName string, parentID *uint, content string) (uint, error) {
	var grandID *uint
	if parentID != nil {
		var parent models.Comment
		if err := s.db.WithContext(ctx).First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, errors.New("parent comment not found")
			}
			return 0, err
		}
		if parent.PostID != postID {
			return 0, errors.New("parent comment belongs to another post")
		}
		if parent.ParentGrandID != nil {
			grandID = parent.ParentGrandID
		} else if parent.ParentID != nil {
			grandID = parent.ParentID
		} else {
			grandID = parentID
		}
	}

	comment := models.Comment{
		PostID:        postID,
		AuthorID:      authorID,
		AuthorName:    authorName,
		ParentID:      parentID,
		ParentGrandID: grandID,
		Content:       content,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return 0, err
	}
	return comment.ID, nil
}

// AddPost inserts a post and its tag associations. The post insert is the
// primary step; a failed tag association is logged and skipped, leaving the
// post committed with the associations that succeeded.
func (s *ContentService) AddPost(ctx context.Context, authorID uint, authorName string, in PostInput) (uint, error) {
	post := models.Post{
		Title:        in.Title,
		CategoryID:   in.CategoryID,
		CategoryName: in.CategoryName,
		Content:      in.Content,
		AuthorID:     authorID,
		AuthorName:   authorName,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return 0, err
	}
	s.associateTags(ctx, post.ID, in.TagIDs)
	return post.ID, nil
}

func (s *ContentService) associateTags(ctx context.Context, postID uint, tagIDs []uint) {
	for _, tagID := range tagIDs {
		assoc := models.PostTag{PostID: postID, TagID: tagID}
		if err := s.db.WithContext(ctx).Create(&assoc).Error; err != nil {
			utils.Sugar.Warnf("tag association failed post=%d tag=%d: %v", postID, tagID, err)
		}
	}
}

// UpdatePost replaces a post's content and tag set. Only the author may
// update; anyone else gets ErrNotOwner.
func (s *ContentService) UpdatePost(ctx context.Context, postID, authorID uint, in PostInput) error {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		return err
	}
	if post.AuthorID != authorID {
		return ErrNotOwner
	}

	updates := map[string]interface{}{
		"title":         in.Title,
		"category_id":   in.CategoryID,
		"category_name": in.CategoryName,
		"content":       in.Content,
	}
	if err := s.db.WithContext(ctx).Model(&post).Updates(updates).Error; err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
		utils.Sugar.Warnf("tag cleanup failed for post %d: %v", postID, err)
	}
	s.associateTags(ctx, postID, in.TagIDs)
	return nil
}

// DeletePost removes a post. Only the author may delete. Dependent rows
// (tags, likes, comments) are cleaned up best-effort after the post row is
// gone.
func (s *ContentService) DeletePost(ctx context.Context, postID, authorID uint) error {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		return err
	}
	if post.AuthorID != authorID {
		return ErrNotOwner
	}
	if err := s.db.WithContext(ctx).Delete(&post).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
		utils.Sugar.Warnf("tag cleanup failed for post %d: %v", postID, err)
	}
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
		utils.Sugar.Warnf("like cleanup failed for post %d: %v", postID, err)
	}
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
		utils.Sugar.Warnf("comment cleanup failed for post %d: %v", postID, err)
	}
	return nil
}

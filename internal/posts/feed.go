// internal/posts/feed.go
package posts

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const (
	feedDefaultLimit = 10
	feedMaxLimit     = 50
)

// buildFeedQuery assembles the unified feed SQL. One round trip gathers the
// page of posts with author identity, ordered media, and engagement counts;
// follow status is resolved afterwards in a single batched query.
func buildFeedQuery(opts FeedOptions) (string, []interface{}) {
	if opts.Limit <= 0 {
		opts.Limit = feedDefaultLimit
	}
	if opts.Limit > feedMaxLimit {
		opts.Limit = feedMaxLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = []string{StatusPublished}
	}

	var (
		conditions []string
		args       []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions = append(conditions, fmt.Sprintf("p.status = ANY(%s)", arg(pq.Array(statuses))))

	if label, ok := CategoryLabel(opts.CategorySlug); ok {
		conditions = append(conditions, fmt.Sprintf("p.category = %s", arg(label)))
	}
	if opts.Search != "" {
		pattern := arg("%" + opts.Search + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(p.title ILIKE %[1]s OR p.body ILIKE %[1]s OR u.username ILIKE %[1]s OR u.display_name ILIKE %[1]s)",
			pattern))
	}
	if opts.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("p.author_id = %s", arg(*opts.AuthorID)))
	}
	if opts.GroupID != nil {
		conditions = append(conditions, fmt.Sprintf("p.group_id = %s", arg(*opts.GroupID)))
	} else if opts.ExcludeGroupPosts {
		conditions = append(conditions, "p.group_id IS NULL")
	}

	query := fmt.Sprintf(`
		SELECT
			p.id, p.author_id, p.title, p.body, p.category, p.status, p.group_id,
			p.published_at, p.created_at, p.updated_at,
			u.username AS author_username,
			u.display_name AS author_display_name,
			u.avatar_url AS author_avatar_url,
			COALESCE(m.media, '[]'::json) AS media,
			COALESCE(cc.count, 0) AS comment_count,
			COALESCE(lc.count, 0) AS like_count
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN LATERAL (
			SELECT json_agg(json_build_object(
				'media_type', pm.media_type,
				'order_index', pm.order_index,
				'storage_key', pm.storage_key,
				'url', pm.storage_url,
				'original_filename', pm.original_filename,
				'file_size', pm.file_size,
				'content_type', pm.content_type
			) ORDER BY pm.order_index) AS media
			FROM post_media pm WHERE pm.post_id = p.id
		) m ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS count FROM comments c WHERE c.post_id = p.id
		) cc ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS count FROM likes l WHERE l.post_id = p.id
		) lc ON TRUE
		WHERE %s
		ORDER BY COALESCE(p.published_at, p.created_at) DESC
		LIMIT %s OFFSET %s`,
		strings.Join(conditions, " AND "),
		arg(opts.Limit), arg(opts.Offset))

	return query, args
}

package threads

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var scriptPattern = regexp.MustCompile(`(?s)<script type="application/json"[^>]*data-sjs[^>]*>(.*?)</script>`)

// Post is one thread post dug out of the page's JSON islands.
type Post struct {
	ID         string
	Code       string
	Text       string
	TakenAt    int64
	Username   string
	UserPic    string
	Verified   bool
	LikeCount  int64
	ReplyCount int64
	Images     []string
}

// ExtractPosts finds the thread data embedded in a threads.net page. The
// first returned post is the main one, the rest are replies.
func ExtractPosts(htmlContent string) ([]Post, error) {
	for _, m := range scriptPattern.FindAllStringSubmatch(htmlContent, -1) {
		island := m[1]
		// Cheap pre-filter before JSON parsing.
		if !strings.Contains(island, `"ScheduledServerJS"`) || !strings.Contains(island, "thread_items") {
			continue
		}
		if !gjson.Valid(island) {
			continue
		}

		var posts []Post
		for _, group := range nestedLookup(gjson.Parse(island), "thread_items") {
			group.ForEach(func(_, item gjson.Result) bool {
				if p, ok := parsePost(item); ok {
					posts = append(posts, p)
				}
				return true
			})
		}
		if len(posts) > 0 {
			return posts, nil
		}
	}
	return nil, fmt.Errorf("no thread data found in page")
}

// nestedLookup collects every value stored under key anywhere in the
// document, the way the islands bury thread_items at varying depths.
func nestedLookup(doc gjson.Result, key string) []gjson.Result {
	var results []gjson.Result
	var walk func(gjson.Result)
	walk = func(node gjson.Result) {
		if !node.IsObject() && !node.IsArray() {
			return
		}
		node.ForEach(func(k, v gjson.Result) bool {
			if node.IsObject() && k.String() == key {
				results = append(results, v)
			}
			walk(v)
			return true
		})
	}
	walk(doc)
	return results
}

func parsePost(item gjson.Result) (Post, bool) {
	post := item.Get("post")
	if !post.Exists() {
		return Post{}, false
	}

	p := Post{
		ID:         post.Get("id").String(),
		Code:       post.Get("code").String(),
		Text:       post.Get("caption.text").String(),
		TakenAt:    post.Get("taken_at").Int(),
		Username:   post.Get("user.username").String(),
		UserPic:    post.Get("user.profile_pic_url").String(),
		Verified:   post.Get("user.is_verified").Bool(),
		LikeCount:  post.Get("like_count").Int(),
		ReplyCount: post.Get("text_post_app_info.direct_reply_count").Int(),
	}

	post.Get("carousel_media").ForEach(func(_, media gjson.Result) bool {
		candidates := media.Get("image_versions2.candidates")
		if img := candidates.Get("1.url"); img.Exists() {
			p.Images = append(p.Images, img.String())
		} else if img := candidates.Get("0.url"); img.Exists() {
			p.Images = append(p.Images, img.String())
		}
		return true
	})

	if p.Text == "" && p.Username == "" {
		return Post{}, false
	}
	return p, true
}

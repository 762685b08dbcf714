package feishu

import (
	"fmt"
	"time"

	"chemradar/internal/domain"
)

// buildCard assembles the interactive research card: carbene-flavored
// header when the selection includes carbene papers, per-article blocks
// with the Chinese title, journal, recommendation, and quoted abstract, and
// a DOI button per entry.
func buildCard(articles []domain.EnrichedArticle, now time.Time) map[string]any {
	hasCarbene := false
	for _, article := range articles {
		if article.Category == domain.CategoryCarbene {
			hasCarbene = true
			break
		}
	}

	templateColor := "blue"
	headerTitle := "🧪 有机化学前沿雷达 (方法学)"
	if hasCarbene {
		templateColor = "orange"
		headerTitle = "🔥 有机化学前沿雷达 (卡宾专项)"
	}

	elements := []any{
		map[string]any{
			"tag": "note",
			"content": map[string]any{
				"tag":     "plain_text",
				"content": fmt.Sprintf("📅 日期：%s | 🔍 来源：JACS, Angew, RSC, Nature, Thieme 等", now.Format("2006-01-02")),
			},
		},
	}

	if len(articles) == 0 {
		elements = append(elements, map[string]any{
			"tag": "div",
			"text": map[string]any{
				"tag":     "lark_md",
				"content": "📍 **今日暂无符合条件的顶级文献更新。**\n*已检索所有订阅期刊 RSS 源。*",
			},
		})
	}

	for idx, article := range articles {
		titleZH := article.TitleZH
		if titleZH == "" {
			titleZH = "无中文标题"
		}
		journal := article.Journal
		if journal == "" {
			journal = "N/A"
		}
		recommendation := article.Recommendation
		if recommendation == "" {
			recommendation = "暂无推荐理由"
		}
		abstractZH := article.AbstractZH
		if abstractZH == "" {
			abstractZH = "无摘要内容"
		}

		elements = append(elements, map[string]any{
			"tag": "div",
			"text": map[string]any{
				"tag": "lark_md",
				"content": fmt.Sprintf("**%d. %s**\n📖 期刊：*%s*\n🔬 **推荐理由**：%s",
					idx+1, titleZH, journal, recommendation),
			},
		})

		elements = append(elements, map[string]any{
			"tag": "div",
			"text": map[string]any{
				"tag":     "lark_md",
				"content": fmt.Sprintf("> 📝 **摘要精选**：%s", abstractZH),
			},
		})

		buttonType := "default"
		if article.Category == domain.CategoryCarbene {
			buttonType = "primary"
		}
		elements = append(elements, map[string]any{
			"tag": "action",
			"actions": []any{
				map[string]any{
					"tag":  "button",
					"text": map[string]any{"tag": "plain_text", "content": "🔗 阅读原文 (DOI)"},
					"type": buttonType,
					"url":  articleURL(article),
				},
			},
		})

		elements = append(elements, map[string]any{"tag": "hr"})
	}

	if !hasCarbene && len(articles) > 0 {
		elements = append(elements, map[string]any{
			"tag": "note",
			"content": map[string]any{
				"tag":     "lark_md",
				"content": "💡 *提示：今日未监测到吡啶-亚胺配体相关的卡宾转移研究，已为您优选方法学文献。*",
			},
		})
	}

	return map[string]any{
		"config": map[string]any{"wide_screen_mode": true},
		"header": map[string]any{
			"title":    map[string]any{"tag": "plain_text", "content": headerTitle},
			"template": templateColor,
		},
		"elements": elements,
	}
}

func articleURL(article domain.EnrichedArticle) string {
	if article.DOI != "" {
		return "https://doi.org/" + article.DOI
	}
	if article.Link != "" {
		return article.Link
	}
	return "#"
}

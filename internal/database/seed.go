package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with a built-in default master template if no
// templates exist yet, so a fresh install always has something to render
// slides against. Safe to call on every startup.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM master_templates").Scan(&count); err != nil {
		return fmt.Errorf("seed check templates: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO master_templates
			(name, description, html_content, style_config, tags, is_default, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, TRUE, TRUE, 'system')
	`,
		"Classic Light",
		"Built-in minimal light template with a left-aligned title bar.",
		defaultTemplateHTML,
		`{"dimensions":"1280x720","aspect_ratio":"16:9","framework":"HTML + CSS"}`,
		`["built-in","minimal"]`,
	)
	if err != nil {
		return fmt.Errorf("seed insert default template: %w", err)
	}

	slog.Info("database seeded with default master template", "name", "Classic Light")
	return nil
}

// defaultTemplateHTML is the built-in fallback layout. It satisfies the
// same structural contract the AI pipeline validates: full document,
// 1280x720, inline styles, all four placeholders, no overflow.
const defaultTemplateHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Classic Light</title>
<style>
  html, body { margin: 0; padding: 0; }
  body {
    width: 1280px; height: 720px; overflow: hidden;
    background: #f8fafc; color: #0f172a;
    font-family: 'Segoe UI', 'Helvetica Neue', Arial, sans-serif;
    display: flex; flex-direction: column;
  }
  .title-bar {
    padding: 48px 64px 16px 64px;
    border-bottom: 4px solid #2563eb;
  }
  .title-bar h1 { margin: 0; font-size: 40px; text-align: left; }
  .content { flex: 1; padding: 32px 64px; font-size: 24px; overflow: hidden; }
  .footer {
    padding: 12px 64px; font-size: 16px; color: #64748b;
    display: flex; justify-content: flex-end;
  }
</style>
</head>
<body>
  <div class="title-bar"><h1>{{ page_title }}</h1></div>
  <div class="content">{{ page_content }}</div>
  <div class="footer">{{ current_page_number }} / {{ total_page_count }}</div>
</body>
</html>`

package email

const (
	TemplateUnderperformer = "underperformer"
	TemplateOptimization   = "optimization"
)

const BaseTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; color: #1f2937; max-width: 600px; margin: 0 auto;">
<div style="padding: 24px;">{{.Content}}</div>
<p style="font-size: 12px; color: #6b7280; padding: 0 24px;">UpsurgeIQ Campaign Lab</p>
</body>
</html>`

const UnderperformerTemplate = `<h2>Underperforming ad variant</h2>
<p>Variant <strong>{{.VariantName}}</strong> ({{.Angle}}) in campaign #{{.CampaignID}} scored
<strong>{{printf "%.1f" .Score}}</strong>, below the threshold of {{.Threshold}}.</p>
<p>Consider pausing it or running the optimizer.</p>`

const OptimizationTemplate = `<h2>Campaign optimized</h2>
<p>Campaign #{{.CampaignID}}: {{.OptimizedCount}} variant(s) changed.</p>
<ul>{{range .Actions}}<li>{{.VariantName}}: {{.Action}} ({{.Reason}})</li>{{end}}</ul>`

package pricing

import (
	"strconv"
	"strings"

	"github.com/vnmchuo/media-gateway/internal/schema"
)

// aspectRatios maps the named aspect_ratio input values to fixed pixel
// dimensions used for pixel-based pricing.
var aspectRatios = map[string][2]int{
	"1:1":  {1024, 1024},
	"16:9": {1344, 768},
	"9:16": {768, 1344},
	"4:3":  {1184, 880},
	"3:4":  {880, 1184},
	"3:2":  {1216, 832},
	"2:3":  {832, 1216},
}

const defaultDimension = 1024

// Cost computes the monetary cost of one generation from the tool's pricing
// model and the raw user inputs. It never fails: malformed numeric inputs
// yield cost 0 so that the budget check stays advisory rather than blocking
// the generation on bad pricing data.
func Cost(p schema.Pricing, inputs map[string]any) float64 {
	switch p.Kind() {
	case schema.PricingPerMillionPixels:
		width, height, ok := resolveDimensions(inputs)
		if !ok {
			return 0
		}
		return float64(width*height) / 1_000_000 * p.PerMillionPixels

	case schema.PricingPerImage:
		quality := stringInput(inputs, "quality", "standard")
		size := stringInput(inputs, "size", "1024x1024")
		if row, ok := p.Costs[quality]; ok {
			if c, ok := row[size]; ok {
				return c
			}
		}
		return p.Costs["standard"][size]

	case schema.PricingPerGeneration:
		return p.Cost

	case schema.PricingPerMillionTokens:
		// Token consumption is only known after the call; the upstream
		// billing service settles it. No upfront cost.
		return 0
	}
	return 0
}

// resolveDimensions picks the image dimensions in priority order: explicit
// width/height inputs, a "WxH" size string, a named aspect ratio, then the
// 1024x1024 default. Explicit inputs that fail to parse make the whole
// resolution fail (cost 0).
func resolveDimensions(inputs map[string]any) (width, height int, ok bool) {
	wRaw, wSet := inputs["width"]
	hRaw, hSet := inputs["height"]
	if wSet && hSet {
		w, wOK := toInt(wRaw)
		h, hOK := toInt(hRaw)
		if !wOK || !hOK {
			return 0, 0, false
		}
		return w, h, true
	}

	if sizeRaw, set := inputs["size"]; set {
		if size, isStr := sizeRaw.(string); isStr {
			if w, h, parsed := parseSize(size); parsed {
				return w, h, true
			}
		}
	}

	if arRaw, set := inputs["aspect_ratio"]; set {
		if ar, isStr := arRaw.(string); isStr {
			if dims, known := aspectRatios[ar]; known {
				return dims[0], dims[1], true
			}
		}
	}

	return defaultDimension, defaultDimension, true
}

func parseSize(size string) (int, int, bool) {
	parts := strings.SplitN(size, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func stringInput(inputs map[string]any, name, fallback string) string {
	if v, ok := inputs[name]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

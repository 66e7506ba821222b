package base

import (
	"encoding/json"
	"fmt"
)

func jsQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// clickScript scrolls the index-th match of selector into view and clicks it.
func clickScript(selector string, index int, missing string) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelectorAll(%s)[%d];
  if (!el) throw new Error(%s);
  el.scrollIntoView({block: 'center'});
  el.click();
  return true;
})()`, jsQuote(selector), index, jsQuote(missing))
}

// optionClickScript finds the first match of selector whose normalized text
// equals option and clicks it in the same evaluation. Normalization mirrors
// parser.NormalizeText.
func optionClickScript(selector, option, missing string) string {
	return fmt.Sprintf(`(() => {
  const norm = (s) => (s || '').replace(/\u00a0/g, ' ').replace(/\s+/g, ' ').trim().toLowerCase();
  const want = %s;
  const el = Array.from(document.querySelectorAll(%s)).find((b) => norm(b.textContent) === want);
  if (!el) throw new Error(%s);
  el.scrollIntoView({block: 'center'});
  el.click();
  return true;
})()`, jsQuote(option), jsQuote(selector), jsQuote(missing))
}

// textScript returns the text content of the first match of selector.
func textScript(selector string) string {
	return fmt.Sprintf(`(document.querySelector(%s)?.textContent || '')`, jsQuote(selector))
}

const (
	readyStateScript   = `document.readyState`
	scrollHeightScript = `Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement.scrollHeight)`
	scrollWidthScript  = `Math.max(document.body ? document.body.scrollWidth : 0, document.documentElement.scrollWidth)`
)

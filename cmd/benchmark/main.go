package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"course-chatter/internal/config"
	"course-chatter/internal/course"
	"course-chatter/internal/llm"
)

// course questions that never hit the FAQ table, so every one reaches the model
var testQuestions = []string{
	"Will we build a REST API with Flask or Django?",
	"I only know a bit of Excel. Is this course too hard for me?",
	"How much homework should I expect each week?",
}

type BenchmarkResult struct {
	Temperature float32
	Question    string
	Duration    time.Duration
	Tokens      int
	Answer      string
	Err         error
}

func main() {
	temps := flag.String("temperatures", "0.2,0.7,1.0", "comma separated temperatures to compare")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		logrus.Warnf("Warning: .env file not found: %v", err)
	}
	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("❌ %v", err)
	}
	if !cfg.LLMConfigured() {
		logrus.Fatalf("❌ LLM provider %s has no credentials", cfg.LLMProvider)
	}
	info, err := course.Load(cfg.CourseInfoPath)
	if err != nil {
		logrus.Fatalf("❌ %v", err)
	}

	values, err := parseTemperatures(*temps)
	if err != nil {
		logrus.Fatalf("❌ %v", err)
	}

	logrus.Infof("🚀 Benchmarking %s/%s on %d questions x %d temperatures", cfg.LLMProvider, cfg.OpenAIModel, len(testQuestions), len(values))
	start := time.Now()
	results := run(context.Background(), cfg, course.SystemPrompt(info), values)
	logrus.Infof("⏱️ All requests completed in %v", time.Since(start))

	printSummaryStats(results)
}

func parseTemperatures(s string) ([]float32, error) {
	var out []float32
	for _, part := range strings.Split(s, ",") {
		var v float32
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%g", &v); err != nil {
			return nil, fmt.Errorf("bad temperature %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func run(ctx context.Context, cfg *config.Config, systemPrompt string, temps []float32) []BenchmarkResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []BenchmarkResult
	)
	base := llm.NewFactory(cfg)
	for _, temp := range temps {
		client, err := base.WithTemperature(temp).CreateClient(cfg.LLMProvider, cfg.OpenAIModel)
		if err != nil {
			logrus.Fatalf("❌ Failed to create LLM client: %v", err)
		}
		for _, q := range testQuestions {
			wg.Add(1)
			go func(temp float32, q string) {
				defer wg.Done()
				r := ask(ctx, client, cfg.LLMTimeout, systemPrompt, q)
				r.Temperature = temp
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}(temp, q)
		}
	}
	wg.Wait()
	return results
}

func ask(ctx context.Context, client llm.Client, timeout time.Duration, systemPrompt, q string) BenchmarkResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	resp, err := client.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: q},
	})
	return BenchmarkResult{
		Question: q,
		Duration: time.Since(start),
		Tokens:   resp.TotalTokens,
		Answer:   resp.Content,
		Err:      err,
	}
}

func printSummaryStats(results []BenchmarkResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Temperature != results[j].Temperature {
			return results[i].Temperature < results[j].Temperature
		}
		return results[i].Question < results[j].Question
	})

	fmt.Println("\n📈 SUMMARY")
	fmt.Println("══════════")
	byTemp := map[float32][]BenchmarkResult{}
	var order []float32
	for _, r := range results {
		if _, ok := byTemp[r.Temperature]; !ok {
			order = append(order, r.Temperature)
		}
		byTemp[r.Temperature] = append(byTemp[r.Temperature], r)
	}
	for _, temp := range order {
		var total time.Duration
		var tokens, failed int
		for _, r := range byTemp[temp] {
			if r.Err != nil {
				failed++
				continue
			}
			total += r.Duration
			tokens += r.Tokens
		}
		ok := len(byTemp[temp]) - failed
		avg := time.Duration(0)
		if ok > 0 {
			avg = total / time.Duration(ok)
		}
		fmt.Printf("🌡️ temperature=%.1f: ok=%d failed=%d avg_latency=%v tokens=%d\n", temp, ok, failed, avg.Round(time.Millisecond), tokens)
		for _, r := range byTemp[temp] {
			if r.Err != nil {
				fmt.Printf("   ❌ %s: %v\n", r.Question, r.Err)
				continue
			}
			fmt.Printf("   • %s\n     %s\n", r.Question, truncateString(r.Answer, 160))
		}
	}
}

func truncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

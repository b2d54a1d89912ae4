package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"course-chatter/internal/coursemcp"
)

func main() {
	fmt.Println("🧪 Testing course MCP server")
	fmt.Println("============================")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	serverPath := ""
	if len(os.Args) > 1 {
		serverPath = os.Args[1]
	}

	client := coursemcp.NewClient()
	if err := client.Connect(ctx, serverPath); err != nil {
		fmt.Printf("❌ Connection failed: %v\n", err)
		fmt.Println("\n💡 Build the server first: go build -o bin/course-mcp-server ./cmd/course-mcp-server")
		os.Exit(1)
	}
	defer client.Close()
	fmt.Println("✅ Connected successfully!")

	fmt.Println("\n📚 get_course_info")
	report(client.CourseInfo(ctx))

	fmt.Println("\n🔍 search_faq: \"how much is the price?\"")
	report(client.SearchFAQ(ctx, "how much is the price?"))

	if len(os.Args) > 2 && os.Args[2] == "--register" {
		fmt.Println("\n📝 register_student")
		report(client.RegisterStudent(ctx, coursemcp.RegisterStudentParams{
			Name:  "Test Student",
			Email: "test.student@example.com",
			Phone: "+1 555 0100",
		}))
	}

	fmt.Println("\n🎉 Course MCP smoke test completed!")
}

func report(res coursemcp.Result, err error) {
	switch {
	case err != nil:
		fmt.Printf("❌ Call failed: %v\n", err)
	case !res.Success:
		fmt.Printf("⚠️ Tool error: %s\n", res.Message)
	default:
		fmt.Println(res.Message)
	}
}

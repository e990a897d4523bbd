// Package billingconnect wires the billing RPC services to connect handlers
// and clients. Every handler and client uses api.JSONCodec.
package billingconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api"
)

// Fully-qualified service names.
const (
	BillingServiceName   = "tutoring.billing.v1.BillingService"
	ClassServiceName     = "tutoring.billing.v1.ClassService"
	DirectoryServiceName = "tutoring.billing.v1.DirectoryService"
)

// Procedure paths, used for routing and in interceptors.
const (
	BillingServiceGenerateBillProcedure               = "/tutoring.billing.v1.BillingService/GenerateBill"
	BillingServiceAutoGenerateBillsProcedure          = "/tutoring.billing.v1.BillingService/AutoGenerateBills"
	BillingServiceGetParentBillsProcedure             = "/tutoring.billing.v1.BillingService/GetParentBills"
	BillingServiceGetParentCurrentMonthBillsProcedure = "/tutoring.billing.v1.BillingService/GetParentCurrentMonthBills"
	BillingServiceHandleClassDeletionProcedure        = "/tutoring.billing.v1.BillingService/HandleClassDeletion"
	BillingServiceGenerateImmediateBillingProcedure   = "/tutoring.billing.v1.BillingService/GenerateImmediateBilling"
	BillingServiceUpdateBillStatusProcedure           = "/tutoring.billing.v1.BillingService/UpdateBillStatus"
	BillingServiceAppendBillNoteProcedure             = "/tutoring.billing.v1.BillingService/AppendBillNote"
	ClassServiceCreateClassProcedure                  = "/tutoring.billing.v1.ClassService/CreateClass"
	ClassServiceDeleteClassProcedure                  = "/tutoring.billing.v1.ClassService/DeleteClass"
	DirectoryServiceCreateParentProcedure             = "/tutoring.billing.v1.DirectoryService/CreateParent"
	DirectoryServiceCreateStudentProcedure            = "/tutoring.billing.v1.DirectoryService/CreateStudent"
)

func handlerOptions(opts []connect.HandlerOption) connect.HandlerOption {
	return connect.WithHandlerOptions(append([]connect.HandlerOption{connect.WithCodec(api.JSONCodec{})}, opts...)...)
}

func clientOptions(opts []connect.ClientOption) connect.ClientOption {
	return connect.WithClientOptions(append([]connect.ClientOption{connect.WithCodec(api.JSONCodec{})}, opts...)...)
}

// BillingServiceHandler generates, reads and reconciles monthly bills.
type BillingServiceHandler interface {
	GenerateBill(context.Context, *connect.Request[api.GenerateBillRequest]) (*connect.Response[api.GenerateBillResponse], error)
	AutoGenerateBills(context.Context, *connect.Request[api.AutoGenerateBillsRequest]) (*connect.Response[api.AutoGenerateBillsResponse], error)
	GetParentBills(context.Context, *connect.Request[api.GetParentBillsRequest]) (*connect.Response[api.GetParentBillsResponse], error)
	GetParentCurrentMonthBills(context.Context, *connect.Request[api.GetParentCurrentMonthBillsRequest]) (*connect.Response[api.GetParentBillsResponse], error)
	HandleClassDeletion(context.Context, *connect.Request[api.HandleClassDeletionRequest]) (*connect.Response[api.ReconciliationResponse], error)
	GenerateImmediateBilling(context.Context, *connect.Request[api.GenerateImmediateBillingRequest]) (*connect.Response[api.GenerateImmediateBillingResponse], error)
	UpdateBillStatus(context.Context, *connect.Request[api.UpdateBillStatusRequest]) (*connect.Response[api.BillResponse], error)
	AppendBillNote(context.Context, *connect.Request[api.AppendBillNoteRequest]) (*connect.Response[api.BillResponse], error)
}

// NewBillingServiceHandler builds an HTTP handler for svc and returns the path to mount it on.
func NewBillingServiceHandler(svc BillingServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opt := handlerOptions(opts)
	generateBill := connect.NewUnaryHandler(BillingServiceGenerateBillProcedure, svc.GenerateBill, opt)
	autoGenerateBills := connect.NewUnaryHandler(BillingServiceAutoGenerateBillsProcedure, svc.AutoGenerateBills, opt)
	getParentBills := connect.NewUnaryHandler(BillingServiceGetParentBillsProcedure, svc.GetParentBills, opt)
	getParentCurrentMonthBills := connect.NewUnaryHandler(BillingServiceGetParentCurrentMonthBillsProcedure, svc.GetParentCurrentMonthBills, opt)
	handleClassDeletion := connect.NewUnaryHandler(BillingServiceHandleClassDeletionProcedure, svc.HandleClassDeletion, opt)
	generateImmediateBilling := connect.NewUnaryHandler(BillingServiceGenerateImmediateBillingProcedure, svc.GenerateImmediateBilling, opt)
	updateBillStatus := connect.NewUnaryHandler(BillingServiceUpdateBillStatusProcedure, svc.UpdateBillStatus, opt)
	appendBillNote := connect.NewUnaryHandler(BillingServiceAppendBillNoteProcedure, svc.AppendBillNote, opt)
	return "/" + BillingServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case BillingServiceGenerateBillProcedure:
			generateBill.ServeHTTP(w, r)
		case BillingServiceAutoGenerateBillsProcedure:
			autoGenerateBills.ServeHTTP(w, r)
		case BillingServiceGetParentBillsProcedure:
			getParentBills.ServeHTTP(w, r)
		case BillingServiceGetParentCurrentMonthBillsProcedure:
			getParentCurrentMonthBills.ServeHTTP(w, r)
		case BillingServiceHandleClassDeletionProcedure:
			handleClassDeletion.ServeHTTP(w, r)
		case BillingServiceGenerateImmediateBillingProcedure:
			generateImmediateBilling.ServeHTTP(w, r)
		case BillingServiceUpdateBillStatusProcedure:
			updateBillStatus.ServeHTTP(w, r)
		case BillingServiceAppendBillNoteProcedure:
			appendBillNote.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// BillingServiceClient calls a remote BillingService.
type BillingServiceClient interface {
	GenerateBill(context.Context, *connect.Request[api.GenerateBillRequest]) (*connect.Response[api.GenerateBillResponse], error)
	AutoGenerateBills(context.Context, *connect.Request[api.AutoGenerateBillsRequest]) (*connect.Response[api.AutoGenerateBillsResponse], error)
	GetParentBills(context.Context, *connect.Request[api.GetParentBillsRequest]) (*connect.Response[api.GetParentBillsResponse], error)
	GetParentCurrentMonthBills(context.Context, *connect.Request[api.GetParentCurrentMonthBillsRequest]) (*connect.Response[api.GetParentBillsResponse], error)
	HandleClassDeletion(context.Context, *connect.Request[api.HandleClassDeletionRequest]) (*connect.Response[api.ReconciliationResponse], error)
	GenerateImmediateBilling(context.Context, *connect.Request[api.GenerateImmediateBillingRequest]) (*connect.Response[api.GenerateImmediateBillingResponse], error)
	UpdateBillStatus(context.Context, *connect.Request[api.UpdateBillStatusRequest]) (*connect.Response[api.BillResponse], error)
	AppendBillNote(context.Context, *connect.Request[api.AppendBillNoteRequest]) (*connect.Response[api.BillResponse], error)
}

// NewBillingServiceClient returns a client for the service at baseURL (e.g. http://localhost:8080).
func NewBillingServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BillingServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opt := clientOptions(opts)
	return &billingServiceClient{
		generateBill:               connect.NewClient[api.GenerateBillRequest, api.GenerateBillResponse](httpClient, baseURL+BillingServiceGenerateBillProcedure, opt),
		autoGenerateBills:          connect.NewClient[api.AutoGenerateBillsRequest, api.AutoGenerateBillsResponse](httpClient, baseURL+BillingServiceAutoGenerateBillsProcedure, opt),
		getParentBills:             connect.NewClient[api.GetParentBillsRequest, api.GetParentBillsResponse](httpClient, baseURL+BillingServiceGetParentBillsProcedure, opt),
		getParentCurrentMonthBills: connect.NewClient[api.GetParentCurrentMonthBillsRequest, api.GetParentBillsResponse](httpClient, baseURL+BillingServiceGetParentCurrentMonthBillsProcedure, opt),
		handleClassDeletion:        connect.NewClient[api.HandleClassDeletionRequest, api.ReconciliationResponse](httpClient, baseURL+BillingServiceHandleClassDeletionProcedure, opt),
		generateImmediateBilling:   connect.NewClient[api.GenerateImmediateBillingRequest, api.GenerateImmediateBillingResponse](httpClient, baseURL+BillingServiceGenerateImmediateBillingProcedure, opt),
		updateBillStatus:           connect.NewClient[api.UpdateBillStatusRequest, api.BillResponse](httpClient, baseURL+BillingServiceUpdateBillStatusProcedure, opt),
		appendBillNote:             connect.NewClient[api.AppendBillNoteRequest, api.BillResponse](httpClient, baseURL+BillingServiceAppendBillNoteProcedure, opt),
	}
}

type billingServiceClient struct {
	generateBill               *connect.Client[api.GenerateBillRequest, api.GenerateBillResponse]
	autoGenerateBills          *connect.Client[api.AutoGenerateBillsRequest, api.AutoGenerateBillsResponse]
	getParentBills             *connect.Client[api.GetParentBillsRequest, api.GetParentBillsResponse]
	getParentCurrentMonthBills *connect.Client[api.GetParentCurrentMonthBillsRequest, api.GetParentBillsResponse]
	handleClassDeletion        *connect.Client[api.HandleClassDeletionRequest, api.ReconciliationResponse]
	generateImmediateBilling   *connect.Client[api.GenerateImmediateBillingRequest, api.GenerateImmediateBillingResponse]
	updateBillStatus           *connect.Client[api.UpdateBillStatusRequest, api.BillResponse]
	appendBillNote             *connect.Client[api.AppendBillNoteRequest, api.BillResponse]
}

func (c *billingServiceClient) GenerateBill(ctx context.Context, req *connect.Request[api.GenerateBillRequest]) (*connect.Response[api.GenerateBillResponse], error) {
	return c.generateBill.CallUnary(ctx, req)
}

func (c *billingServiceClient) AutoGenerateBills(ctx context.Context, req *connect.Request[api.AutoGenerateBillsRequest]) (*connect.Response[api.AutoGenerateBillsResponse], error) {
	return c.autoGenerateBills.CallUnary(ctx, req)
}

func (c *billingServiceClient) GetParentBills(ctx context.Context, req *connect.Request[api.GetParentBillsRequest]) (*connect.Response[api.GetParentBillsResponse], error) {
	return c.getParentBills.CallUnary(ctx, req)
}

func (c *billingServiceClient) GetParentCurrentMonthBills(ctx context.Context, req *connect.Request[api.GetParentCurrentMonthBillsRequest]) (*connect.Response[api.GetParentBillsResponse], error) {
	return c.getParentCurrentMonthBills.CallUnary(ctx, req)
}

func (c *billingServiceClient) HandleClassDeletion(ctx context.Context, req *connect.Request[api.HandleClassDeletionRequest]) (*connect.Response[api.ReconciliationResponse], error) {
	return c.handleClassDeletion.CallUnary(ctx, req)
}

func (c *billingServiceClient) GenerateImmediateBilling(ctx context.Context, req *connect.Request[api.GenerateImmediateBillingRequest]) (*connect.Response[api.GenerateImmediateBillingResponse], error) {
	return c.generateImmediateBilling.CallUnary(ctx, req)
}

func (c *billingServiceClient) UpdateBillStatus(ctx context.Context, req *connect.Request[api.UpdateBillStatusRequest]) (*connect.Response[api.BillResponse], error) {
	return c.updateBillStatus.CallUnary(ctx, req)
}

func (c *billingServiceClient) AppendBillNote(ctx context.Context, req *connect.Request[api.AppendBillNoteRequest]) (*connect.Response[api.BillResponse], error) {
	return c.appendBillNote.CallUnary(ctx, req)
}

// ClassServiceHandler manages the class catalog and triggers billing on changes.
type ClassServiceHandler interface {
	CreateClass(context.Context, *connect.Request[api.CreateClassRequest]) (*connect.Response[api.CreateClassResponse], error)
	DeleteClass(context.Context, *connect.Request[api.DeleteClassRequest]) (*connect.Response[api.ReconciliationResponse], error)
}

// NewClassServiceHandler builds an HTTP handler for svc and returns the path to mount it on.
func NewClassServiceHandler(svc ClassServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opt := handlerOptions(opts)
	createClass := connect.NewUnaryHandler(ClassServiceCreateClassProcedure, svc.CreateClass, opt)
	deleteClass := connect.NewUnaryHandler(ClassServiceDeleteClassProcedure, svc.DeleteClass, opt)
	return "/" + ClassServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ClassServiceCreateClassProcedure:
			createClass.ServeHTTP(w, r)
		case ClassServiceDeleteClassProcedure:
			deleteClass.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ClassServiceClient calls a remote ClassService.
type ClassServiceClient interface {
	CreateClass(context.Context, *connect.Request[api.CreateClassRequest]) (*connect.Response[api.CreateClassResponse], error)
	DeleteClass(context.Context, *connect.Request[api.DeleteClassRequest]) (*connect.Response[api.ReconciliationResponse], error)
}

// NewClassServiceClient returns a client for the service at baseURL (e.g. http://localhost:8080).
func NewClassServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ClassServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opt := clientOptions(opts)
	return &classServiceClient{
		createClass: connect.NewClient[api.CreateClassRequest, api.CreateClassResponse](httpClient, baseURL+ClassServiceCreateClassProcedure, opt),
		deleteClass: connect.NewClient[api.DeleteClassRequest, api.ReconciliationResponse](httpClient, baseURL+ClassServiceDeleteClassProcedure, opt),
	}
}

type classServiceClient struct {
	createClass *connect.Client[api.CreateClassRequest, api.CreateClassResponse]
	deleteClass *connect.Client[api.DeleteClassRequest, api.ReconciliationResponse]
}

func (c *classServiceClient) CreateClass(ctx context.Context, req *connect.Request[api.CreateClassRequest]) (*connect.Response[api.CreateClassResponse], error) {
	return c.createClass.CallUnary(ctx, req)
}

func (c *classServiceClient) DeleteClass(ctx context.Context, req *connect.Request[api.DeleteClassRequest]) (*connect.Response[api.ReconciliationResponse], error) {
	return c.deleteClass.CallUnary(ctx, req)
}

// DirectoryServiceHandler registers parents and students.
type DirectoryServiceHandler interface {
	CreateParent(context.Context, *connect.Request[api.CreateParentRequest]) (*connect.Response[api.CreateParentResponse], error)
	CreateStudent(context.Context, *connect.Request[api.CreateStudentRequest]) (*connect.Response[api.CreateStudentResponse], error)
}

// NewDirectoryServiceHandler builds an HTTP handler for svc and returns the path to mount it on.
func NewDirectoryServiceHandler(svc DirectoryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opt := handlerOptions(opts)
	createParent := connect.NewUnaryHandler(DirectoryServiceCreateParentProcedure, svc.CreateParent, opt)
	createStudent := connect.NewUnaryHandler(DirectoryServiceCreateStudentProcedure, svc.CreateStudent, opt)
	return "/" + DirectoryServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DirectoryServiceCreateParentProcedure:
			createParent.ServeHTTP(w, r)
		case DirectoryServiceCreateStudentProcedure:
			createStudent.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// DirectoryServiceClient calls a remote DirectoryService.
type DirectoryServiceClient interface {
	CreateParent(context.Context, *connect.Request[api.CreateParentRequest]) (*connect.Response[api.CreateParentResponse], error)
	CreateStudent(context.Context, *connect.Request[api.CreateStudentRequest]) (*connect.Response[api.CreateStudentResponse], error)
}

// NewDirectoryServiceClient returns a client for the service at baseURL (e.g. http://localhost:8080).
func NewDirectoryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) DirectoryServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opt := clientOptions(opts)
	return &directoryServiceClient{
		createParent:  connect.NewClient[api.CreateParentRequest, api.CreateParentResponse](httpClient, baseURL+DirectoryServiceCreateParentProcedure, opt),
		createStudent: connect.NewClient[api.CreateStudentRequest, api.CreateStudentResponse](httpClient, baseURL+DirectoryServiceCreateStudentProcedure, opt),
	}
}

type directoryServiceClient struct {
	createParent  *connect.Client[api.CreateParentRequest, api.CreateParentResponse]
	createStudent *connect.Client[api.CreateStudentRequest, api.CreateStudentResponse]
}

func (c *directoryServiceClient) CreateParent(ctx context.Context, req *connect.Request[api.CreateParentRequest]) (*connect.Response[api.CreateParentResponse], error) {
	return c.createParent.CallUnary(ctx, req)
}

func (c *directoryServiceClient) CreateStudent(ctx context.Context, req *connect.Request[api.CreateStudentRequest]) (*connect.Response[api.CreateStudentResponse], error) {
	return c.createStudent.CallUnary(ctx, req)
}
